// Package ui is the development stand-in for the physical LED strip: a
// bubbletea program that displays each frame as a row of truecolor blocks.
// It satisfies led.Sink by forwarding frames into the tea message loop, the
// same way the scanners in ble-radar feed discoveries to the display.
package ui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"soulstar.klederson.com/internal/app"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/identity"
	"soulstar.klederson.com/internal/led"
)

// FrameMsg carries one rendered frame into the tea loop.
type FrameMsg struct{ Frame led.Frame }

// StatusMsg carries badge status for the status bar.
type StatusMsg struct {
	Neighbors  int
	Brightness uint8
	Paused     bool
}

// Model is the root tea model for the strip visualizer.
type Model struct {
	width  int
	height int

	ident      identity.Identity
	frame      led.Frame
	neighbors  int
	brightness uint8
	paused     bool
	torch      bool

	cmds chan<- any
}

// New creates the visualizer model. Key presses turn into display commands
// on cmds.
func New(ident identity.Identity, brightness uint8, cmds chan<- any) Model {
	return Model{
		ident:      ident,
		frame:      make(led.Frame, config.LEDCount),
		brightness: brightness,
		cmds:       cmds,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case FrameMsg:
		m.frame = msg.Frame
		return m, nil

	case StatusMsg:
		m.neighbors = msg.Neighbors
		m.brightness = msg.Brightness
		m.paused = msg.Paused
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.paused = true
		m.send(app.Pause{})

	case "s", "S":
		m.paused, m.torch = false, false
		m.send(app.Resume{})

	case "o", "O":
		m.paused = true
		m.send(app.Off{})

	case "t", "T":
		m.torch = !m.torch
		m.paused = m.torch
		m.send(app.Torch{On: m.torch})

	case "+", "=":
		m.brightness = led.Clip(int16(m.brightness) + 16)
		m.send(app.SetBrightness{Level: m.brightness})

	case "-", "_":
		m.brightness = led.Clip(int16(m.brightness) - 16)
		m.send(app.SetBrightness{Level: m.brightness})
	}
	return m, nil
}

// send forwards a command without ever blocking the UI loop.
func (m Model) send(cmd any) {
	select {
	case m.cmds <- cmd:
	default:
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing Soul Star..."
	}

	title := StyleTitleBar.Width(m.width).Render(
		fmt.Sprintf("%s v%s  %s", config.AppName, config.AppVersion, m.ident.String()))

	strip := renderStrip(m.frame)
	ruler := StyleRuler.Render(renderRuler(len(m.frame)))

	state := StyleStatusLive.Render("[LIVE]")
	if m.paused {
		state = StyleStatusPaused.Render("[PAUSED]")
	}
	info := fmt.Sprintf(" Souls: %d  Brightness: %d/255  Pixels: %d",
		m.neighbors, m.brightness, len(m.frame))
	status := StyleStatusBar.Width(m.width).Render(state + info)

	help := StyleHelp.Render("  s start  p pause  o off  t torch  +/- brightness  q quit")

	return strings.Join([]string{title, "", "  " + strip, "  " + ruler, "", status, help}, "\n")
}

// renderStrip draws each pixel as a two-cell truecolor block.
func renderStrip(frame led.Frame) string {
	var sb strings.Builder
	for _, px := range frame {
		color := lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", px.R, px.G, px.B))
		sb.WriteString(lipgloss.NewStyle().Foreground(color).Render("██"))
	}
	return sb.String()
}

// renderRuler labels every fourth pixel.
func renderRuler(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i%4 == 0 {
			sb.WriteString(fmt.Sprintf("%-2d", i))
		} else {
			sb.WriteString("  ")
		}
	}
	return sb.String()
}

// ProgramSink adapts a running tea program into the render pipeline's sink.
// The program is attached after construction because the badge needs the
// sink before the tea program can exist.
type ProgramSink struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewProgramSink creates a detached sink; frames are dropped until Attach.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach binds the sink to the running program.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

// Show forwards the frame into the tea loop. It copies the slice since a
// sink must not retain the caller's buffer.
func (s *ProgramSink) Show(frame led.Frame) error {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	cp := make(led.Frame, len(frame))
	copy(cp, frame)
	p.Send(FrameMsg{Frame: cp})
	return nil
}

// Status forwards badge status for the status bar.
func (s *ProgramSink) Status(neighbors int, brightness uint8, paused bool) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		return
	}
	p.Send(StatusMsg{Neighbors: neighbors, Brightness: brightness, Paused: paused})
}
