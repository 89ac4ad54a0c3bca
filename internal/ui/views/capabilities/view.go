package capabilities

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	capabilitydto "pahm/internal/modules/capability/dto"
	"pahm/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the capability use-case.
type Port interface {
	List(ctx context.Context) ([]capabilitydto.ProviderInfo, error)
	Doctor(ctx context.Context) ([]capabilitydto.DoctorResult, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type ProvidersLoadedMsg struct {
	Providers []capabilitydto.ProviderInfo
	Err       error
}

type DoctorDoneMsg struct {
	Results []capabilitydto.DoctorResult
	Err     error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the self-contained Bubble Tea model for the Capabilities tab.
type Model struct {
	port      Port
	viewport  viewport.Model
	spinner   spinner.Model
	providers []capabilitydto.ProviderInfo
	results   []capabilitydto.DoctorResult
	err       error
	loading   bool
	width     int
	height    int
}

func New(port Port) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, viewport: vp, spinner: sp}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return m.listCmd()
}

// RunDoctor checks every provider and shows the results.
func (m *Model) RunDoctor() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	return tea.Batch(m.doctorCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 2
		m.viewport.Height = m.height - 2

	case ProvidersLoadedMsg:
		m.providers = msg.Providers
		m.err = msg.Err

	case DoctorDoneMsg:
		m.loading = false
		m.results = msg.Results
		m.err = msg.Err

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "d":
			cmd := m.RunDoctor()
			return m, cmd
		case "r":
			return m, m.listCmd()
		}
	}

	m.viewport.SetContent(m.render())
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking providers…")
	}
	return m.viewport.View()
}

func (m Model) render() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Capability providers") + "\n\n")
	if m.err != nil {
		sb.WriteString(theme.Bad.Render(m.err.Error()) + "\n\n")
	}
	if len(m.providers) == 0 {
		sb.WriteString(theme.Muted.Render("No providers configured. Audio cues fall back to the terminal bell and the screen may sleep.") + "\n")
	}
	for _, p := range m.providers {
		state := theme.Good.Render("enabled")
		if !p.Enabled {
			state = theme.Muted.Render("disabled")
		}
		fmt.Fprintf(&sb, "%s %s  %s  [%s]\n", theme.Hot.Render(p.Name), p.Version, state, strings.Join(p.Capabilities, ", "))
		sb.WriteString(theme.Muted.Render("  "+p.Binary) + "\n")
	}
	if len(m.results) > 0 {
		sb.WriteString("\n" + theme.Title.Render("Doctor") + "\n\n")
		for _, r := range m.results {
			fmt.Fprintf(&sb, "%s  checksum %s  binary %s  lifecycle %s\n",
				theme.Hot.Render(r.Name), mark(r.ChecksumValid), mark(r.BinaryReachable), mark(r.LifecycleOK))
			if len(r.Advertised) > 0 {
				sb.WriteString(theme.Muted.Render("  advertises "+strings.Join(r.Advertised, ", ")) + "\n")
			}
			if r.Error != "" {
				sb.WriteString(theme.Bad.Render("  "+r.Error) + "\n")
			}
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("d doctor  r reload"))
	return sb.String()
}

func mark(ok bool) string {
	if ok {
		return theme.Good.Render("ok")
	}
	return theme.Bad.Render("fail")
}

func (m Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		providers, err := m.port.List(context.Background())
		return ProvidersLoadedMsg{Providers: providers, Err: err}
	}
}

func (m Model) doctorCmd() tea.Cmd {
	return func() tea.Msg {
		results, err := m.port.Doctor(context.Background())
		return DoctorDoneMsg{Results: results, Err: err}
	}
}
