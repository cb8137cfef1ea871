// SPDX-License-Identifier: MIT

// Package tui is the terminal control surface: keys 1-4 press the demo's
// buttons, the four LEDs are drawn as lamps and every LED change is kept in
// a scrolling log.
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"audiodemo/internal/event"
	"audiodemo/internal/transport"
)

const (
	eventBuffer = 64
	maxLogLines = 200
	chromeLines = 8 // title, lamps, labels, help and spacing
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	lampOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 2).
			Bold(true)

	lampOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Background(lipgloss.Color("#2A2A2A")).
			Padding(0, 2)
)

type keyMap struct {
	Buttons [event.NumButtons]key.Binding
	Record  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Buttons: [event.NumButtons]key.Binding{
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "button 0")),
		key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "button 1")),
		key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "button 2")),
		key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "button 3")),
	},
	Record: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "capture")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Presser queues a short press of a button.
type Presser interface {
	Press(button int) error
}

// Recorder toggles WAV capture of the host output.
type Recorder interface {
	StartRecording(filename string) error
	StopRecording() error
	IsRecording() bool
}

// Options describe what the panel controls.
type Options struct {
	Title    string
	Labels   [event.NumLEDs]string // lamp captions; defaults to "LED n"
	Controls Presser
	LEDs     *transport.LEDState // initial lamp state, may be nil
	Recorder Recorder            // enables the capture key when set
	NextPath func() string       // file name for the next capture
}

type ledMsg event.Event

type closedMsg struct{}

// Panel bridges the LED dispatcher to the bubbletea program. Send never
// blocks: when the program falls behind, the lamps still catch up from the
// next event and only log lines are lost.
type Panel struct {
	opts      Options
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewPanel creates a panel. Register it with the dispatcher, then call Run.
func NewPanel(opts Options) *Panel {
	for i, label := range opts.Labels {
		if label == "" {
			opts.Labels[i] = fmt.Sprintf("LED %d", i)
		}
	}
	return &Panel{
		opts:   opts,
		events: make(chan event.Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Send implements transport.Transport.
func (p *Panel) Send(ev event.Event) error {
	if !ev.IsLED() {
		return nil
	}
	select {
	case p.events <- ev:
	default:
	}
	return nil
}

// Close ends a running program.
func (p *Panel) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Model returns the bubbletea model for the panel.
func (p *Panel) Model() Model {
	m := Model{
		opts:   p.opts,
		events: p.events,
		done:   p.done,
	}
	if p.opts.LEDs != nil {
		for i := range m.lamps {
			m.lamps[i] = p.opts.LEDs.On(i)
		}
	}
	return m
}

// Run shows the panel until the user quits or Close is called.
func (p *Panel) Run() error {
	prog := tea.NewProgram(p.Model(), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

var _ transport.Transport = (*Panel)(nil)

// Model is the bubbletea model behind Panel.
type Model struct {
	opts   Options
	events <-chan event.Event
	done   <-chan struct{}

	lamps    [event.NumLEDs]bool
	log      []string
	viewport viewport.Model
	ready    bool
	err      error
}

func waitForEvent(events <-chan event.Event, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-events:
			return ledMsg(ev)
		case <-done:
			return closedMsg{}
		}
	}
}

// Init starts listening for LED events.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events, m.done)
}

// Update handles LED events, window changes and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-chromeLines, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refreshLog()

	case ledMsg:
		ev := event.Event(msg)
		m.lamps[ev.LEDIndex()] = ev.LEDIsOn()
		m.appendLog(fmt.Sprintf("%-8s %s", m.opts.Labels[ev.LEDIndex()], ev))
		cmds = append(cmds, waitForEvent(m.events, m.done))

	case closedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		for i, binding := range keys.Buttons {
			if key.Matches(msg, binding) {
				m.press(i)
			}
		}
		if key.Matches(msg, keys.Record) && m.opts.Recorder != nil {
			m.toggleRecording()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) press(button int) {
	if m.opts.Controls == nil {
		return
	}
	if err := m.opts.Controls.Press(button); err != nil {
		m.err = fmt.Errorf("button %d: %w", button, err)
		return
	}
	m.err = nil
}

func (m *Model) toggleRecording() {
	rec := m.opts.Recorder
	if rec.IsRecording() {
		m.err = rec.StopRecording()
		m.appendLog("capture stopped")
		return
	}
	name := "recording.wav"
	if m.opts.NextPath != nil {
		name = m.opts.NextPath()
	}
	if m.err = rec.StartRecording(name); m.err == nil {
		m.appendLog("capturing to " + name)
	}
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.log, "\n"))
	m.viewport.GotoBottom()
}

// View renders the lamps, the event log and the key help.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := "Audio Demo"
	if m.opts.Title != "" {
		title += ": " + m.opts.Title
	}
	if m.opts.Recorder != nil && m.opts.Recorder.IsRecording() {
		title += " [REC]"
	}

	lamps := make([]string, len(m.lamps))
	for i, on := range m.lamps {
		style := lampOffStyle
		if on {
			style = lampOnStyle
		}
		lamps[i] = lipgloss.JoinVertical(lipgloss.Center,
			style.Render(fmt.Sprintf("%d", i+1)),
			infoStyle.Render(m.opts.Labels[i]))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, spaced(lamps)...)

	help := []string{"1-4: Press button"}
	if m.opts.Recorder != nil {
		help = append(help, keys.Record.Help().Key+": Capture")
	}
	help = append(help, keys.Quit.Help().Key+": Quit")

	status := ""
	if m.err != nil {
		status = errorStyle.Render("Error: " + m.err.Error())
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s\n%s",
		titleStyle.Render(title),
		row,
		m.viewport.View(),
		status,
		highlightStyle.Render(strings.Join(help, " • ")))
}

func spaced(blocks []string) []string {
	out := make([]string, 0, 2*len(blocks))
	for i, b := range blocks {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, b)
	}
	return out
}

// Lamps reports the lamp state the model is drawing.
func (m Model) Lamps() [event.NumLEDs]bool { return m.lamps }
