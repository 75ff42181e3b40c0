// Package tui is the interactive terminal front end for the recording
// pipeline.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"speechpdf/internal/pipeline"
	"speechpdf/internal/record"
)

// TickInterval is how often a queued chunk is handed to the recognizer.
const TickInterval = time.Second

// Controller is the part of the pipeline the UI drives.
type Controller interface {
	Start(ctx context.Context) error
	Tick(ctx context.Context) bool
	Stop(ctx context.Context) (pipeline.Result, error)
	SetToken(token string)
	State() pipeline.State
	Text() string
	Controls() *pipeline.Controls
}

// Deps are the side effects the model triggers through commands.
type Deps struct {
	FetchToken  func(ctx context.Context) (string, error)
	ListDevices func() ([]record.Device, error)
	Copy        func(text string) error
	Events      <-chan pipeline.Event
}

// Model is the root bubbletea model.
type Model struct {
	ctx  context.Context
	ctrl Controller
	deps Deps

	devices     []record.Device
	deviceIndex int
	duration    textinput.Model

	state    pipeline.State
	lines    []pipeline.Event
	status   string
	quitting bool

	width  int
	height int
}

// New creates a Model. The chunk-duration input starts with the value held
// by the controller's Controls.
func New(ctx context.Context, ctrl Controller, deps Deps) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "20"
	ti.CharLimit = 8
	ti.Width = 8
	ti.SetValue(ctrl.Controls().ChunkDuration())

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		deps:     deps,
		duration: ti,
		status:   "Fetching access token...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchTokenCmd(m.ctx, m.deps.FetchToken),
		devicesCmd(m.deps.ListDevices),
		waitEventCmd(m.deps.Events),
		tickCmd(),
	)
}

func fetchTokenCmd(ctx context.Context, fetch func(context.Context) (string, error)) tea.Cmd {
	if fetch == nil {
		return nil
	}
	return func() tea.Msg {
		token, err := fetch(ctx)
		return TokenMsg{Token: token, Err: err}
	}
}

func devicesCmd(list func() ([]record.Device, error)) tea.Cmd {
	if list == nil {
		return nil
	}
	return func() tea.Msg {
		devs, err := list()
		return DevicesMsg{Devices: devs, Err: err}
	}
}

// waitEventCmd blocks until the pipeline emits the next event.
func waitEventCmd(events <-chan pipeline.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: e}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func transcribeCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Tick(ctx)
		return tickDoneMsg{}
	}
}

func startCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return StartedMsg{Err: ctrl.Start(ctx)}
	}
}

func stopCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Stop(ctx)
		return StoppedMsg{Result: res, Err: err}
	}
}

func copyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if copyFn == nil {
			return CopiedMsg{Err: fmt.Errorf("clipboard not configured")}
		}
		return CopiedMsg{Err: copyFn(text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TokenMsg:
		if msg.Err != nil {
			m.addFailure(pipeline.AuthFailure, "fetch token", msg.Err)
			m.status = "No access token"
			return m, nil
		}
		m.ctrl.SetToken(msg.Token)
		m.status = "Ready"
		return m, nil

	case DevicesMsg:
		if msg.Err != nil {
			m.addFailure(pipeline.IOFailure, "list devices", msg.Err)
			return m, nil
		}
		m.devices = msg.Devices
		m.deviceIndex = 0
		current := m.ctrl.Controls().Device()
		for i, d := range m.devices {
			if (current != "" && d.Name == current) || (current == "" && d.Default) {
				m.deviceIndex = i
				break
			}
		}
		m.applyDevice()
		return m, nil

	case EventMsg:
		m.lines = append(m.lines, msg.Event)
		return m, waitEventCmd(m.deps.Events)

	case TickMsg:
		m.state = m.ctrl.State()
		if m.state == pipeline.Recording {
			return m, tea.Batch(tickCmd(), transcribeCmd(m.ctx, m.ctrl))
		}
		return m, tickCmd()

	case tickDoneMsg:
		return m, nil

	case StartedMsg:
		if msg.Err != nil {
			m.status = "Start failed: " + msg.Err.Error()
			return m, nil
		}
		m.state = pipeline.Recording
		m.status = "Recording"
		return m, nil

	case StoppedMsg:
		m.state = m.ctrl.State()
		switch {
		case msg.Err != nil:
			m.status = "Stop failed: " + msg.Err.Error()
		case msg.Result.PDFPath != "":
			m.status = "Saved " + msg.Result.PDFPath
		default:
			m.status = "Stopped, PDF not saved"
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			m.status = "Copy failed: " + msg.Err.Error()
		} else {
			m.status = "Transcript copied to clipboard"
		}
		return m, nil
	}

	if m.duration.Focused() {
		return m.updateDuration(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m.quit()
	}

	if m.duration.Focused() {
		switch msg.String() {
		case KeyFocus, KeyEnter, KeyEsc:
			m.duration.Blur()
			m.ctrl.Controls().SetChunkDuration(m.duration.Value())
			return m, nil
		}
		return m.updateDuration(msg)
	}

	switch msg.String() {
	case KeyQuit:
		return m.quit()

	case KeyStart:
		if m.ctrl.State() != pipeline.Idle {
			return m, nil
		}
		m.lines = nil
		m.status = "Starting..."
		return m, startCmd(m.ctx, m.ctrl)

	case KeyStop:
		if m.ctrl.State() != pipeline.Recording {
			return m, nil
		}
		m.state = pipeline.Draining
		m.status = "Transcribing remaining chunks..."
		return m, stopCmd(m.ctx, m.ctrl)

	case KeyCopy:
		return m, copyCmd(m.deps.Copy, m.ctrl.Text())

	case KeyPrevDevice, KeyNextDevice:
		if len(m.devices) == 0 {
			return m, nil
		}
		step := 1
		if msg.String() == KeyPrevDevice {
			step = len(m.devices) - 1
		}
		m.deviceIndex = (m.deviceIndex + step) % len(m.devices)
		m.applyDevice()
		return m, nil

	case KeyFocus:
		return m, m.duration.Focus()
	}
	return m, nil
}

func (m Model) updateDuration(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.duration, cmd = m.duration.Update(msg)
	m.ctrl.Controls().SetChunkDuration(m.duration.Value())
	return m, cmd
}

// quit stops an active recording first so the transcript is exported.
func (m Model) quit() (tea.Model, tea.Cmd) {
	switch m.ctrl.State() {
	case pipeline.Recording:
		m.quitting = true
		m.state = pipeline.Draining
		m.status = "Finishing before exit..."
		return m, stopCmd(m.ctx, m.ctrl)
	case pipeline.Draining:
		m.quitting = true
		return m, nil
	}
	return m, tea.Quit
}

func (m *Model) applyDevice() {
	if m.deviceIndex < len(m.devices) {
		name := m.devices[m.deviceIndex].Name
		m.ctrl.Controls().SetDevice(name)
		slog.Debug("device selected", "component", "tui", "device", name)
	}
}

func (m *Model) addFailure(kind pipeline.FailureKind, op string, err error) {
	m.lines = append(m.lines, pipeline.Event{
		Kind:    pipeline.EventFailure,
		Failure: &pipeline.Failure{Kind: kind, Op: op, Err: err},
	})
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("speechpdf"))
	b.WriteString("  ")
	b.WriteString(m.stateBadge())
	b.WriteString("  ")
	b.WriteString(footerDescStyle.Render(m.status))
	b.WriteString("\n\n")

	device := "(default input)"
	if m.deviceIndex < len(m.devices) {
		device = m.devices[m.deviceIndex].Name
	}
	b.WriteString(labelStyle.Render("Device"))
	b.WriteString(valueStyle.Render("◀ " + device + " ▶"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Chunk, s"))
	b.WriteString(m.duration.View())
	b.WriteString("\n\n")

	b.WriteString(m.transcriptPanel())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) stateBadge() string {
	switch m.state {
	case pipeline.Recording:
		return recordingStyle.Render("● REC")
	case pipeline.Draining:
		return drainingStyle.Render("◌ DRAINING")
	}
	return idleStyle.Render("○ IDLE")
}

func (m Model) transcriptPanel() string {
	width := m.width - 4
	if width < 20 {
		width = 76
	}
	height := m.height - 10
	if height < 3 {
		height = 12
	}

	var rendered []string
	for _, e := range m.lines {
		switch e.Kind {
		case pipeline.EventFragment:
			rendered = append(rendered, fragmentStyle.Render(e.String()))
		case pipeline.EventFailure:
			rendered = append(rendered, errorStyle.Render(e.String()))
		default:
			rendered = append(rendered, infoStyle.Render(e.String()))
		}
	}
	if len(rendered) > height {
		rendered = rendered[len(rendered)-height:]
	}
	body := strings.Join(rendered, "\n")
	if body == "" {
		body = idleStyle.Render("Transcript will appear here.")
	}
	return panelStyle.Width(width).Height(height).Render(lipgloss.NewStyle().Width(width - 2).Render(body))
}

func (m Model) footer() string {
	keys := []struct{ key, desc string }{
		{"s", "start"},
		{"x", "stop"},
		{"←/→", "device"},
		{"tab", "duration"},
		{"c", "copy"},
		{"q", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+" "+footerDescStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}
