// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
	"audiodemo/internal/metrics"
)

const (
	writeWait     = time.Second
	broadcastSize = 256
)

// WebSocketOptions configures the control server.
type WebSocketOptions struct {
	Address     string
	Controls    Controls         // Receives button events; nil disables /ws.
	LEDs        *LEDState        // Replayed to each new client when set.
	Metrics     *metrics.Metrics // Served at MetricsPath when set.
	MetricsPath string
}

// ledMessage is the outbound JSON frame, e.g.
// {"type":"led","event":"led0_on","led":0,"on":true}.
type ledMessage struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	LED   int    `json:"led"`
	On    bool   `json:"on"`
}

// errorMessage answers an inbound frame that could not be delivered.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// inboundMessage is the inbound JSON frame, e.g. {"event":"button0_down"}.
type inboundMessage struct {
	Event string `json:"event"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// WebSocketTransport implements the Transport interface for WebSocket
// clients. Clients receive every LED event and may press buttons by sending
// button events back. The same server exposes Prometheus metrics.
type WebSocketTransport struct {
	opts     WebSocketOptions
	log      *applog.Logger
	upgrader websocket.Upgrader

	clients   map[*wsClient]struct{}
	clientsMu sync.Mutex
	closed    bool
	clientWG  sync.WaitGroup

	broadcast chan event.Event
	done      chan struct{}
	server    *http.Server
	listener  net.Listener
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWebSocketTransport creates a new WebSocketTransport instance. Call
// Start to begin serving.
func NewWebSocketTransport(opts WebSocketOptions) *WebSocketTransport {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &WebSocketTransport{
		opts: opts,
		log:  applog.With("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local control surface
			},
		},
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan event.Event, broadcastSize),
		done:      make(chan struct{}),
	}
}

// Handler returns the server's routes: /ws for control clients and the
// metrics path when metrics are configured.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	if wst.opts.Controls != nil {
		mux.HandleFunc("/ws", wst.handleWebSocket)
	}
	if wst.opts.Metrics != nil {
		mux.Handle(wst.opts.MetricsPath, wst.opts.Metrics.Handler())
	}
	return mux
}

// Start listens on the configured address and begins serving and
// broadcasting. Listen errors are returned directly.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.opts.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", wst.opts.Address, err)
	}
	wst.listener = ln
	wst.server = &http.Server{
		Handler:           wst.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		wst.log.Infof("Starting server on %s", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.log.Errorf("Server error: %v", err)
		}
	}()
	go func() {
		defer wst.wg.Done()
		wst.handleBroadcasts()
	}()
	return nil
}

// Addr returns the address the server is listening on, or "" before Start.
func (wst *WebSocketTransport) Addr() string {
	if wst.listener == nil {
		return ""
	}
	return wst.listener.Addr().String()
}

// handleWebSocket upgrades HTTP connections to WebSocket and reads button
// events until the client goes away.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warnf("Upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	// Register client
	wst.clientsMu.Lock()
	if wst.closed {
		wst.clientsMu.Unlock()
		conn.Close()
		return
	}
	wst.clients[c] = struct{}{}
	wst.clientWG.Add(1)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	defer wst.clientWG.Done()

	if wst.opts.Metrics != nil {
		wst.opts.Metrics.ClientConnected()
		defer wst.opts.Metrics.ClientDisconnected()
	}
	wst.log.Infof("Client connected, total: %d", total)

	if wst.opts.LEDs != nil {
		for _, ev := range wst.opts.LEDs.Snapshot() {
			if err := c.writeJSON(newLEDMessage(ev)); err != nil {
				wst.removeClient(c)
				return
			}
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := wst.handleInbound(data); err != nil {
			wst.log.Debugf("Rejected client message: %v", err)
			if werr := c.writeJSON(errorMessage{Type: "error", Error: err.Error()}); werr != nil {
				break
			}
		}
	}
	wst.removeClient(c)
}

// handleInbound decodes one client frame and forwards the button event.
func (wst *WebSocketTransport) handleInbound(data []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	ev, err := event.Parse(msg.Event)
	if err != nil {
		return err
	}
	if !ev.IsButton() {
		return fmt.Errorf("%s is not a button event", ev)
	}
	return wst.opts.Controls.Send(ev)
}

func (wst *WebSocketTransport) removeClient(c *wsClient) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[c]
	delete(wst.clients, c)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	c.conn.Close()
	if ok {
		wst.log.Infof("Client disconnected, total: %d", total)
	}
}

// handleBroadcasts sends LED events to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	var targets []*wsClient
	for {
		select {
		case ev := <-wst.broadcast:
			msg := newLEDMessage(ev)

			wst.clientsMu.Lock()
			targets = targets[:0]
			for client := range wst.clients {
				targets = append(targets, client)
			}
			wst.clientsMu.Unlock()

			for _, client := range targets {
				if err := client.writeJSON(msg); err != nil {
					wst.log.Warnf("Error sending to client: %v", err)
					wst.removeClient(client)
				}
			}
		case <-wst.done:
			return
		}
	}
}

// Send queues ev for all connected WebSocket clients. Events are dropped
// when the broadcast queue is full.
func (wst *WebSocketTransport) Send(ev event.Event) error {
	select {
	case wst.broadcast <- ev:
		// Message queued for broadcast
	default:
		wst.log.Debugf("Broadcast queue full, dropping %s", ev)
	}
	return nil
}

// Close shuts down the server, disconnects all clients and waits for the
// server goroutines to finish.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		wst.log.Infof("Closing server")
		close(wst.done)

		// Close all client connections
		wst.clientsMu.Lock()
		wst.closed = true
		for client := range wst.clients {
			client.conn.Close()
		}
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
		wst.clientWG.Wait()
		wst.wg.Wait()
	})
	return err
}

func newLEDMessage(ev event.Event) ledMessage {
	return ledMessage{
		Type:  "led",
		Event: ev.String(),
		LED:   ev.LEDIndex(),
		On:    ev.LEDIsOn(),
	}
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
