package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	journaldto "pahm/internal/modules/journal/dto"
	"pahm/internal/modules/practice/domain"
	"pahm/internal/ui/theme"
)

const listLimit = 100

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the journal use-case.
type Port interface {
	List(ctx context.Context, limit int) ([]journaldto.SessionSummary, error)
	Show(ctx context.Context, id string) (journaldto.SessionDetail, error)
	Stats(ctx context.Context) (journaldto.StatsOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type SessionsLoadedMsg struct {
	Sessions []journaldto.SessionSummary
	Stats    journaldto.StatsOutput
	Err      error
}

type DetailLoadedMsg struct {
	Detail journaldto.SessionDetail
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type sessionItem struct{ s journaldto.SessionSummary }

func (i sessionItem) Title() string {
	return fmt.Sprintf("%s  stage %d", i.s.Timestamp.Local().Format("2006-01-02 15:04"), i.s.StageID)
}

func (i sessionItem) Description() string {
	return fmt.Sprintf("%dm · %s · %.1f · %d%% present", i.s.ActualDurationSeconds/60, i.s.Posture, i.s.QualityScore, i.s.PresentPercentage)
}

func (i sessionItem) FilterValue() string {
	return i.s.Posture + " " + i.s.Timestamp.Format("2006-01-02")
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the self-contained Bubble Tea model for the History tab.
type Model struct {
	port     Port
	list     list.Model
	preview  viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	stats    journaldto.StatsOutput
	loading  bool
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)

	return Model{
		port:     port,
		list:     l,
		preview:  vp,
		spinner:  sp,
		renderer: r,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the session list and stats again.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sessions, err := m.port.List(ctx, listLimit)
		if err != nil {
			return SessionsLoadedMsg{Err: err}
		}
		stats, err := m.port.Stats(ctx)
		return SessionsLoadedMsg{Sessions: sessions, Stats: stats, Err: err}
	}
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case SessionsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.stats = msg.Stats
		m.list.Title = fmt.Sprintf("History · %d sessions · %dh%02dm · avg %.1f",
			msg.Stats.Sessions, msg.Stats.TotalMinutes/60, msg.Stats.TotalMinutes%60, msg.Stats.AverageQuality)
		items := make([]list.Item, len(msg.Sessions))
		for i, s := range msg.Sessions {
			items[i] = sessionItem{s: s}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if len(msg.Sessions) > 0 {
			cmds = append(cmds, m.loadDetailCmd(msg.Sessions[m.clampedIndex(len(msg.Sessions))].ID))
		} else {
			m.preview.SetContent(theme.Muted.Render("No sessions recorded yet."))
		}

	case DetailLoadedMsg:
		if msg.Err != nil {
			m.preview.SetContent(theme.Bad.Render(msg.Err.Error()))
		} else {
			m.preview.SetContent(m.renderDetail(msg.Detail))
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if msg.String() == "r" && !m.Filtering() {
			return m, m.Reload()
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if item, ok := m.list.SelectedItem().(sessionItem); ok {
				cmds = append(cmds, m.loadDetailCmd(item.s.ID))
			}
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading history…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) clampedIndex(n int) int {
	idx := m.list.Index()
	if idx < 0 || idx >= n {
		return 0
	}
	return idx
}

func (m Model) renderDetail(d journaldto.SessionDetail) string {
	md := detailMarkdown(d, m.stats)
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// detailMarkdown lays a session out as markdown: facts, the PAHM matrix as
// a table and the free-text note.
func detailMarkdown(d journaldto.SessionDetail, stats journaldto.StatsOutput) string {
	var sb strings.Builder
	outcome := "completed"
	if !d.IsFullyCompleted {
		outcome = "ended early"
	}
	fmt.Fprintf(&sb, "# Stage %d · %s\n\n", d.StageID, d.Timestamp.Local().Format("Mon 2 Jan 2006 15:04"))
	fmt.Fprintf(&sb, "- **%s** after %dm%02ds in %s\n", outcome, d.ActualDurationSeconds/60, d.ActualDurationSeconds%60, d.Posture)
	fmt.Fprintf(&sb, "- quality **%.1f** / 10, %d%% present, %d thoughts noticed\n", d.QualityScore, d.PresentPercentage, d.TotalTaps)
	if stats.Sessions > 0 {
		fmt.Fprintf(&sb, "- overall average %.1f over %d sessions\n", stats.AverageQuality, stats.Sessions)
	}
	sb.WriteString("\n| | past | present | future |\n|---|---|---|---|\n")
	for _, a := range []domain.Affective{domain.Attachment, domain.Neutral, domain.Aversion} {
		fmt.Fprintf(&sb, "| %s |", a)
		for _, t := range []domain.Temporal{domain.Past, domain.Present, domain.Future} {
			c, err := domain.CategoryAt(t, a)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, " %s %d |", c.Name(), d.Tally[c.Name()])
		}
		sb.WriteString("\n")
	}
	if note := strings.TrimSpace(d.Note); note != "" {
		sb.WriteString("\n## Note\n\n" + note + "\n")
	}
	if d.NotePath != "" {
		fmt.Fprintf(&sb, "\n`%s`\n", d.NotePath)
	}
	return sb.String()
}

func (m Model) loadDetailCmd(id string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.port.Show(context.Background(), id)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}
