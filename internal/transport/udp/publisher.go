// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"audiodemo/internal/transport"
)

// PacketSize is the length of one status packet in bytes.
const PacketSize = 4 + 8 + 1 + 1

// Sender is the packet sink used by UDPPublisher. *UDPSender implements it.
type Sender interface {
	Send(data []byte) error
}

// UDPPublisher periodically packs the LED state into a status packet and
// sends it with a Sender. It runs in a separate goroutine managed by Start
// and Stop methods.
type UDPPublisher struct {
	sender   Sender
	leds     *transport.LEDState
	variant  uint8
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32           // Monotonically increasing sequence number for packets.
	packet      [PacketSize]byte // Reused for every packet.
}

// NewUDPPublisher creates and initializes a new UDPPublisher. variant is
// the running app's variant code, carried in every packet.
// If the provided interval is invalid (<= 0), it defaults to 100ms.
func NewUDPPublisher(interval time.Duration, sender Sender, leds *transport.LEDState, variant uint8) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if leds == nil {
		return nil, fmt.Errorf("UDPPublisher: LED state cannot be nil")
	}

	if interval <= 0 {
		interval = 100 * time.Millisecond
		log.Warnf("Invalid interval provided, defaulting to %s", interval)
	}
	log.Infof("Publisher initializing (Interval: %s)", interval)

	return &UDPPublisher{
		sender:   sender,
		leds:     leds,
		variant:  variant,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	// Prevent starting if already running
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("Publisher Start called but already running.")
		return
	}

	// Initialize resources for this run
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	// Check if already stopped or never started
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan) // Signal the goroutine to exit
		p.ticker.Stop()
		p.ticker = nil // Mark as stopped
	})

	p.mu.Unlock() // Unlock before waiting

	p.wg.Wait()
	log.Debugf("Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Variant           | uint8          | 1            | Running demo app        |
| LED Mask          | uint8          | 1            | Bit i set = LED i on    |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket is executed on each ticker interval.
func (p *UDPPublisher) buildAndSendPacket() {
	p.sequenceNum++
	pkt := p.packet[:]
	binary.BigEndian.PutUint32(pkt[0:4], p.sequenceNum)
	binary.BigEndian.PutUint64(pkt[4:12], uint64(p.now().UnixNano()))
	pkt[12] = p.variant
	pkt[13] = p.leds.Mask()

	if err := p.sender.Send(pkt); err == nil {
		// Log successful sends only at Debug level to avoid flooding logs.
		log.Debugf("Sent packet %d (%d bytes)", p.sequenceNum, len(pkt))
	}
}

// Packet is a decoded status packet.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Variant   uint8
	LEDs      uint8
}

// DecodePacket parses a status packet produced by UDPPublisher.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) != PacketSize {
		return Packet{}, fmt.Errorf("status packet is %d bytes, want %d", len(data), PacketSize)
	}
	return Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(data[4:12]))),
		Variant:   data[12],
		LEDs:      data[13],
	}, nil
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
