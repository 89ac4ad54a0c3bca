package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	practiceinadapter "pahm/internal/modules/practice/adapter/in"
	practicedto "pahm/internal/modules/practice/dto"
	practicein "pahm/internal/modules/practice/port/in"
	"pahm/internal/platform/lifecycle"
	"pahm/internal/ui/components"
	"pahm/internal/ui/theme"
	capabilitiesview "pahm/internal/ui/views/capabilities"
	historyview "pahm/internal/ui/views/history"
	practiceview "pahm/internal/ui/views/practice"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type practicePort interface {
	Events() <-chan practiceinadapter.Event
	Stages(ctx context.Context) []practicedto.StageOutput
	NewSession(ctx context.Context, stageID int) (practicein.Session, error)
	PendingRecovery(ctx context.Context) (practicedto.RecoveryOutput, error)
	ResumeRecovered(ctx context.Context) (practicein.Session, error)
	DiscardRecovery(ctx context.Context) error
	RecordReflection(ctx context.Context, sessionID, emotion, note string) error
}

// signalPort receives the host lifecycle hints the terminal reports.
type signalPort interface {
	Publish(s lifecycle.Signal)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabPractice tabID = iota
	tabHistory
	tabCapabilities
	tabCount
)

var tabLabels = [tabCount]string{"Practice", "History", "Capabilities"}

// ─── async messages ──────────────────────────────────────────────────────────

// practiceEventMsg carries one session event; nil means the stream closed.
type practiceEventMsg struct{ msg tea.Msg }

type reloadHistoryMsg struct{}

// historySettleDelay gives the background recorder time to write the note
// before the History tab reloads.
const historySettleDelay = 750 * time.Millisecond

// paletteHints lists what executePalette and practiceview.Apply accept.
var paletteHints = []string{
	"stage <1-6>",
	"minutes <n>",
	"posture <name>",
	"pause",
	"resume",
	"finish",
	"recovery:discard",
	"history:refresh",
	"caps:doctor",
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Tap     key.Binding
	Pause   key.Binding
	Finish  key.Binding
	Suspend key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Tap:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "note a thought")),
		Pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Finish:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish early")),
		Suspend: key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "suspend")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tap, k.Pause, k.Finish},
		{k.Tab, k.Suspend},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the help overlay,
// the command palette and the lifecycle hints. Rendering and session logic
// live in the sub-views.
type Model struct {
	events  <-chan practiceinadapter.Event
	signals signalPort

	practiceView practiceview.Model
	historyView  historyview.Model
	capsView     capabilitiesview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(practice practicePort, history historyview.Port, caps capabilitiesview.Port, signals signalPort) Model {
	m := Model{
		signals:      signals,
		practiceView: practiceview.New(nil),
		historyView:  historyview.New(history),
		capsView:     capabilitiesview.New(caps),
		activeTab:    tabPractice,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(paletteHints...),
		status:       "ready",
	}
	if practice != nil {
		m.events = practice.Events()
		m.practiceView = practiceview.New(practicePortBridge{p: practice})
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.practiceView.Init(),
		m.historyView.Init(),
		m.capsView.Init(),
		m.waitForEvent(),
	)
}

// Shutdown releases the live session. Call it after the program exits.
func (m Model) Shutdown() {
	m.practiceView.Shutdown()
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case practiceEventMsg:
		if msg.msg == nil {
			m.status = "practice events closed"
			return m, nil
		}
		cmds = append(cmds, m.waitForEvent())
		switch ev := msg.msg.(type) {
		case practiceview.CompletedMsg:
			m.status = "session recorded"
			cmds = append(cmds, reloadHistoryLater())
		case practiceview.ReflectionMsg:
			m.activeTab = tabPractice
		case practiceview.WakeRevokedMsg:
			m.status = "wake lock revoked"
		case practiceview.StateMsg:
			m.status = ev.From + " → " + ev.To
		}
		var cmd tea.Cmd
		m.practiceView, cmd = m.practiceView.Update(msg.msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case practiceview.ReflectionSavedMsg:
		var cmd tea.Cmd
		m.practiceView, cmd = m.practiceView.Update(msg)
		return m, tea.Batch(cmd, m.historyView.Reload())

	case reloadHistoryMsg:
		return m, m.historyView.Reload()

	case tea.BlurMsg:
		return m, m.publish(lifecycle.MaySuspend)

	case tea.FocusMsg, tea.ResumeMsg:
		return m, m.publish(lifecycle.Resumed)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Sequence(m.publish(lifecycle.MaySuspend), tea.Quit)
		}
		// Yield to sub-views that are taking free text.
		if m.capturing() {
			break
		}

		switch msg.String() {
		case "q":
			if m.practiceView.InSession() {
				m.status = "session running: finish with f or quit with ctrl+c"
				return m, nil
			}
			return m, tea.Quit
		case "ctrl+z":
			return m, tea.Sequence(m.publish(lifecycle.MaySuspend), tea.Suspend)
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, m.onTabEnter()
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, m.onTabEnter()
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		}
	}

	// Sub-view messages go to the view that owns them; everything else to
	// the active tab.
	var cmd tea.Cmd
	switch msg.(type) {
	case historyview.SessionsLoadedMsg, historyview.DetailLoadedMsg:
		m.historyView, cmd = m.historyView.Update(msg)
	case capabilitiesview.ProvidersLoadedMsg, capabilitiesview.DoctorDoneMsg:
		m.capsView, cmd = m.capsView.Update(msg)
	case tea.KeyMsg:
		cmd = m.updateActive(msg)
	default:
		var cmdP, cmdH, cmdC tea.Cmd
		m.practiceView, cmdP = m.practiceView.Update(msg)
		m.historyView, cmdH = m.historyView.Update(msg)
		m.capsView, cmdC = m.capsView.Update(msg)
		cmd = tea.Batch(cmdP, cmdH, cmdC)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabPractice:
		m.practiceView, cmd = m.practiceView.Update(msg)
	case tabHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case tabCapabilities:
		m.capsView, cmd = m.capsView.Update(msg)
	}
	return cmd
}

func (m Model) onTabEnter() tea.Cmd {
	if m.activeTab == tabHistory {
		return m.historyView.Reload()
	}
	return nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabPractice:
		return m.practiceView.View()
	case tabHistory:
		return m.historyView.View()
	case tabCapabilities:
		return m.capsView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "pahm  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if headline := m.practiceView.Headline(); headline != "" {
		left = theme.Hot.Render("● "+headline) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	if verb == "" {
		return m, nil
	}
	switch verb {
	case "history:refresh":
		m.activeTab = tabHistory
		m.status = "reloading history"
		return m, m.historyView.Reload()
	case "caps:doctor":
		m.activeTab = tabCapabilities
		m.status = "running provider checks"
		cmd := m.capsView.RunDoctor()
		return m, cmd
	}
	var (
		cmd    tea.Cmd
		status string
	)
	m.practiceView, cmd, status = m.practiceView.Apply(verb, strings.TrimSpace(arg))
	m.activeTab = tabPractice
	m.status = status
	return m, cmd
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) capturing() bool {
	switch m.activeTab {
	case tabPractice:
		return m.practiceView.Capturing()
	case tabHistory:
		return m.historyView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.practiceView, _ = m.practiceView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.capsView, _ = m.capsView.Update(sz)
}

// publish runs off the update loop: subscribers may block on the event
// stream that this loop drains.
func (m Model) publish(s lifecycle.Signal) tea.Cmd {
	if m.signals == nil {
		return nil
	}
	return func() tea.Msg {
		m.signals.Publish(s)
		return nil
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return practiceEventMsg{}
		}
		return practiceEventMsg{msg: toViewMsg(ev)}
	}
}

func reloadHistoryLater() tea.Cmd {
	return tea.Tick(historySettleDelay, func(time.Time) tea.Msg { return reloadHistoryMsg{} })
}

func toViewMsg(ev practiceinadapter.Event) tea.Msg {
	switch ev := ev.(type) {
	case practiceinadapter.TickEvent:
		return practiceview.TickMsg{RemainingSeconds: ev.RemainingSeconds}
	case practiceinadapter.StateEvent:
		return practiceview.StateMsg{From: ev.From, To: ev.To}
	case practiceinadapter.RecoveryOfferedEvent:
		return practiceview.RecoveryOfferedMsg{Offer: ev.Offer}
	case practiceinadapter.WakeRevokedEvent:
		return practiceview.WakeRevokedMsg{}
	case practiceinadapter.CompletedEvent:
		return practiceview.CompletedMsg{Session: ev.Session}
	case practiceinadapter.ReflectionEvent:
		return practiceview.ReflectionMsg{Handoff: ev.Handoff}
	}
	return nil
}

// ─── port bridges ────────────────────────────────────────────────────────────
// The bridge narrows the practice handler to the view's port, so the view
// package never sees the module's session interface.

type practicePortBridge struct{ p practicePort }

func (b practicePortBridge) Stages(ctx context.Context) []practicedto.StageOutput {
	return b.p.Stages(ctx)
}
func (b practicePortBridge) NewSession(ctx context.Context, stageID int) (practiceview.SessionPort, error) {
	s, err := b.p.NewSession(ctx, stageID)
	if err != nil {
		return nil, err
	}
	return s, nil
}
func (b practicePortBridge) PendingRecovery(ctx context.Context) (practicedto.RecoveryOutput, error) {
	return b.p.PendingRecovery(ctx)
}
func (b practicePortBridge) ResumeRecovered(ctx context.Context) (practiceview.SessionPort, error) {
	s, err := b.p.ResumeRecovered(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}
func (b practicePortBridge) DiscardRecovery(ctx context.Context) error {
	return b.p.DiscardRecovery(ctx)
}
func (b practicePortBridge) RecordReflection(ctx context.Context, sessionID, emotion, note string) error {
	return b.p.RecordReflection(ctx, sessionID, emotion, note)
}
