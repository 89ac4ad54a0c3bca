package practice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pahm/internal/modules/practice/domain"
	practicedto "pahm/internal/modules/practice/dto"
	"pahm/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────

// SessionPort is the slice of a practice session this view drives.
type SessionPort interface {
	Start(ctx context.Context, input practicedto.StartInput) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Tap(category domain.Category) bool
	CompleteEarly(ctx context.Context, note string) (practicedto.CompletedOutput, error)
	AcceptRecovery(ctx context.Context) error
	DeclineRecovery(ctx context.Context) error
	Status() practicedto.StatusOutput
	Close() error
}

// Port is the minimal interface this view needs from the practice use-case.
type Port interface {
	Stages(ctx context.Context) []practicedto.StageOutput
	NewSession(ctx context.Context, stageID int) (SessionPort, error)
	PendingRecovery(ctx context.Context) (practicedto.RecoveryOutput, error)
	ResumeRecovered(ctx context.Context) (SessionPort, error)
	DiscardRecovery(ctx context.Context) error
	RecordReflection(ctx context.Context, sessionID, emotion, note string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

// Session events, forwarded by the app model from the practice event stream.
type (
	TickMsg            struct{ RemainingSeconds int }
	StateMsg           struct{ From, To string }
	RecoveryOfferedMsg struct{ Offer practicedto.RecoveryOutput }
	WakeRevokedMsg     struct{}
	CompletedMsg       struct{ Session practicedto.CompletedOutput }
	ReflectionMsg      struct{ Handoff practicedto.HandoffOutput }
)

type stagesLoadedMsg struct{ stages []practicedto.StageOutput }

type pendingLoadedMsg struct {
	offer practicedto.RecoveryOutput
	err   error
}

type sessionOpenedMsg struct {
	session SessionPort
	err     error
}

type actionDoneMsg struct {
	action string
	err    error
}

// ReflectionSavedMsg tells the app that a new journal entry exists.
type ReflectionSavedMsg struct{ Err error }

// ─── modes ───────────────────────────────────────────────────────────────────

type mode int

const (
	modeSetup mode = iota
	modeRestore
	modeSession
	modeConfirmFinish
	modeReflection
	modeSummary
)

var (
	postures = []string{"seated", "kneeling", "lying", "standing", "walking"}
	emotions = []string{"calm", "content", "grateful", "restless", "tired", "anxious", "joyful"}
)

const minuteStep = 5

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the self-contained Bubble Tea model for the Practice tab.
type Model struct {
	port    Port
	session SessionPort
	status  practicedto.StatusOutput

	mode     mode
	stages   []practicedto.StageOutput
	stageIdx int
	minutes  int
	posture  int

	restore  practicedto.RecoveryOutput
	offer    *practicedto.RecoveryOutput
	summary  practicedto.CompletedOutput
	handoff  practicedto.HandoffOutput
	emotion  int
	note     textinput.Model
	bar      progress.Model
	message  string
	wakeLost bool

	width  int
	height int
}

func New(port Port) Model {
	ti := textinput.New()
	ti.Placeholder = "how did the session feel?"
	ti.CharLimit = 2000

	return Model{
		port: port,
		note: ti,
		bar:  progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return tea.Batch(m.loadStagesCmd(), m.loadPendingCmd())
}

// Capturing reports whether the view consumes free text, in which case
// global key bindings must yield.
func (m Model) Capturing() bool {
	return m.mode == modeReflection
}

// InSession reports whether a session is running or paused.
func (m Model) InSession() bool {
	return m.mode == modeSession || m.mode == modeConfirmFinish
}

// Headline is a one-line summary for the app status bar.
func (m Model) Headline() string {
	if !m.InSession() {
		return ""
	}
	return fmt.Sprintf("%s %s", m.status.State, clockFace(m.status.RemainingSeconds))
}

// Shutdown closes the current session, if any. It blocks until the
// session's completion has been recorded.
func (m Model) Shutdown() {
	if m.session != nil {
		_ = m.session.Close()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(m.width-8, 60))
		m.note.Width = max(10, min(m.width-8, 70))

	case stagesLoadedMsg:
		m.stages = msg.stages
		m.selectStage(0)

	case pendingLoadedMsg:
		if msg.err == nil && m.mode == modeSetup {
			m.restore = msg.offer
			m.mode = modeRestore
		}

	case sessionOpenedMsg:
		if msg.err != nil {
			m.message = "start failed: " + msg.err.Error()
			m.mode = modeSetup
			if msg.session != nil {
				return m, closeCmd(msg.session)
			}
			return m, nil
		}
		m.session = msg.session
		m.status = msg.session.Status()
		m.mode = modeSession
		m.wakeLost = false
		m.offer = nil
		m.message = ""

	case actionDoneMsg:
		if msg.err != nil {
			m.message = msg.action + ": " + msg.err.Error()
		}
		m.refresh()

	case TickMsg:
		m.refresh()

	case StateMsg:
		m.refresh()

	case RecoveryOfferedMsg:
		offer := msg.Offer
		m.offer = &offer

	case WakeRevokedMsg:
		m.wakeLost = true
		m.message = "screen wake lock lost; the timer keeps running"

	case CompletedMsg:
		m.summary = msg.Session
		m.offer = nil
		m.refresh()

	case ReflectionMsg:
		m.handoff = msg.Handoff
		m.mode = modeReflection
		m.note.SetValue("")
		cmd := m.note.Focus()
		return m, cmd

	case ReflectionSavedMsg:
		if msg.Err != nil {
			m.message = "reflection not saved: " + msg.Err.Error()
		} else {
			m.message = "reflection saved"
		}
		m.mode = modeSummary

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeSetup:
		return m.setupKey(key)

	case modeRestore:
		switch key {
		case "r", "enter":
			return m, m.resumeRecoveredCmd()
		case "d":
			m.mode = modeSetup
			m.message = "interrupted session discarded"
			return m, m.discardCmd()
		}

	case modeSession:
		if m.offer != nil {
			switch key {
			case "y":
				m.offer = nil
				return m, m.actionCmd("restore tally", m.session.AcceptRecovery)
			case "n":
				m.offer = nil
				return m, m.actionCmd("keep tally", m.session.DeclineRecovery)
			}
			return m, nil
		}
		if c, ok := padCategory(key); ok {
			if m.session.Tap(c) {
				m.refresh()
			}
			return m, nil
		}
		switch key {
		case " ", "p":
			if m.status.State == string(domain.StatePaused) {
				return m, m.actionCmd("resume", m.session.Resume)
			}
			return m, m.actionCmd("pause", m.session.Pause)
		case "f":
			m.mode = modeConfirmFinish
		}

	case modeConfirmFinish:
		switch key {
		case "y", "enter":
			m.mode = modeSession
			return m, m.finishCmd()
		case "n", "esc":
			m.mode = modeSession
		}

	case modeReflection:
		switch key {
		case "tab":
			m.emotion = (m.emotion + 1) % len(emotions)
			return m, nil
		case "shift+tab":
			m.emotion = (m.emotion + len(emotions) - 1) % len(emotions)
			return m, nil
		case "esc":
			m.note.Blur()
			m.mode = modeSummary
			return m, nil
		case "enter":
			note := strings.TrimSpace(m.note.Value())
			m.note.Blur()
			if note == "" {
				m.mode = modeSummary
				return m, nil
			}
			return m, m.reflectCmd(m.handoff.SessionID, emotions[m.emotion], note)
		}
		var cmd tea.Cmd
		m.note, cmd = m.note.Update(msg)
		return m, cmd

	case modeSummary:
		if key == "enter" || key == "esc" {
			m.mode = modeSetup
			session := m.session
			m.session = nil
			m.status = practicedto.StatusOutput{}
			if session != nil {
				return m, closeCmd(session)
			}
		}
	}
	return m, nil
}

func (m Model) setupKey(key string) (Model, tea.Cmd) {
	switch key {
	case "left", "h":
		m.selectStage(m.stageIdx - 1)
	case "right", "l":
		m.selectStage(m.stageIdx + 1)
	case "+", "=", "up", "k":
		m.minutes += minuteStep
	case "-", "down", "j":
		m.minutes = max(1, m.minutes-minuteStep)
	case "p":
		m.posture = (m.posture + 1) % len(postures)
	case "enter", "s":
		if len(m.stages) == 0 {
			return m, nil
		}
		m.message = ""
		return m, m.startCmd(m.stages[m.stageIdx].ID, m.minutes*60, postures[m.posture])
	}
	return m, nil
}

func (m *Model) selectStage(idx int) {
	if len(m.stages) == 0 {
		return
	}
	idx = (idx + len(m.stages)) % len(m.stages)
	m.stageIdx = idx
	m.minutes = m.stages[idx].DefaultDurationSeconds / 60
}

func (m *Model) refresh() {
	if m.session == nil {
		return
	}
	m.status = m.session.Status()
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var body string
	switch m.mode {
	case modeSetup:
		body = m.setupView()
	case modeRestore:
		body = m.restoreView()
	case modeSession, modeConfirmFinish:
		body = m.sessionView()
	case modeReflection:
		body = m.reflectionView()
	case modeSummary:
		body = m.summaryView()
	}
	if m.message != "" {
		body += "\n\n" + theme.Muted.Render(m.message)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Pane.Render(body))
}

func (m Model) setupView() string {
	if len(m.stages) == 0 {
		return theme.Muted.Render("Loading stages…")
	}
	stage := m.stages[m.stageIdx]
	minutes := fmt.Sprintf("%d min", m.minutes)
	if m.minutes*60 < stage.MinimumDurationSeconds {
		minutes = theme.Warn.Render(fmt.Sprintf("%s (stage minimum %d)", minutes, stage.MinimumDurationSeconds/60))
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("New practice session") + "\n\n")
	sb.WriteString(theme.Muted.Render("stage    ") + fmt.Sprintf("‹ %d · %s ›", stage.ID, stage.Name) + "\n")
	sb.WriteString(theme.Muted.Render("length   ") + minutes + "\n")
	sb.WriteString(theme.Muted.Render("posture  ") + postures[m.posture] + "\n\n")
	sb.WriteString(theme.Muted.Render("←/→ stage  +/- length  p posture  enter start"))
	return sb.String()
}

func (m Model) restoreView() string {
	r := m.restore
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Interrupted session found") + "\n\n")
	sb.WriteString(fmt.Sprintf("stage %d, %s, %s of %s done, %d taps\n",
		r.StageID, r.Posture, clockFace(r.ElapsedSeconds), clockFace(r.DurationSeconds), sumTally(r.Tally)))
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("saved %s ago", r.Age.Round(time.Second))) + "\n\n")
	sb.WriteString(theme.Muted.Render("r resume  d discard"))
	return sb.String()
}

func (m Model) sessionView() string {
	s := m.status
	var sb strings.Builder
	title := fmt.Sprintf("Stage %d · %s · %s", s.StageID, s.StageName, s.Posture)
	sb.WriteString(theme.Title.Render(title) + "\n\n")

	face := theme.Hot.Render(clockFace(s.RemainingSeconds))
	if s.State == string(domain.StatePaused) {
		face += theme.Muted.Render("  paused")
	}
	sb.WriteString(face + "\n")
	done := 0.0
	if s.TotalSeconds > 0 {
		done = float64(s.ElapsedSeconds) / float64(s.TotalSeconds)
	}
	sb.WriteString(m.bar.ViewAs(done) + "\n\n")
	sb.WriteString(renderPad(s.Tally) + "\n")
	sb.WriteString(fmt.Sprintf("%d taps  %s  %s\n\n", s.TotalTaps, indicator("wake", s.WakeLockHeld && !m.wakeLost), indicator("audio", s.AudioEnabled)))

	switch {
	case m.offer != nil:
		sb.WriteString(theme.Warn.Render(fmt.Sprintf("You were away for %s. Restore the %d taps counted before? (y/n)",
			m.offer.Age.Round(time.Second), sumTally(m.offer.Tally))))
	case m.mode == modeConfirmFinish:
		sb.WriteString(theme.Warn.Render("Finish the session now? (y/n)"))
	default:
		sb.WriteString(theme.Muted.Render("1-9 note a thought  space pause/resume  f finish"))
	}
	return sb.String()
}

func (m Model) reflectionView() string {
	h := m.handoff
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Reflection") + "\n\n")
	sb.WriteString(fmt.Sprintf("%s in %s, %d thoughts noticed\n\n", clockFace(h.ActualDurationSeconds), h.Posture, sumTally(h.Tally)))
	sb.WriteString(theme.Muted.Render("feeling  ") + theme.Hot.Render(emotions[m.emotion]) + "\n")
	sb.WriteString(m.note.View() + "\n\n")
	sb.WriteString(theme.Muted.Render("tab feeling  enter save  esc skip"))
	return sb.String()
}

func (m Model) summaryView() string {
	s := m.summary
	outcome := "completed"
	if !s.IsFullyCompleted {
		outcome = "ended early"
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Session "+outcome) + "\n\n")
	sb.WriteString(theme.Muted.Render("duration  ") + clockFace(s.ActualDurationSeconds) + "\n")
	sb.WriteString(theme.Muted.Render("present   ") + fmt.Sprintf("%d%%", s.PresentPercentage) + "\n")
	sb.WriteString(theme.Muted.Render("quality   ") + theme.Hot.Render(fmt.Sprintf("%.1f / 10", s.QualityScore)) + "\n\n")
	sb.WriteString(renderPad(s.PAHMTally) + "\n")
	sb.WriteString(theme.Muted.Render("enter new session"))
	return sb.String()
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) loadStagesCmd() tea.Cmd {
	return func() tea.Msg {
		return stagesLoadedMsg{stages: m.port.Stages(context.Background())}
	}
}

func (m Model) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		offer, err := m.port.PendingRecovery(context.Background())
		return pendingLoadedMsg{offer: offer, err: err}
	}
}

func (m Model) startCmd(stageID, seconds int, posture string) tea.Cmd {
	previous := m.session
	return func() tea.Msg {
		if previous != nil {
			_ = previous.Close()
		}
		ctx := context.Background()
		session, err := m.port.NewSession(ctx, stageID)
		if err != nil {
			return sessionOpenedMsg{err: err}
		}
		if err := session.Start(ctx, practicedto.StartInput{DurationSeconds: seconds, Posture: posture}); err != nil {
			return sessionOpenedMsg{session: session, err: err}
		}
		return sessionOpenedMsg{session: session}
	}
}

func (m Model) resumeRecoveredCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.port.ResumeRecovered(context.Background())
		return sessionOpenedMsg{session: session, err: err}
	}
}

func (m Model) discardCmd() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: "discard", err: m.port.DiscardRecovery(context.Background())}
	}
}

func (m Model) actionCmd(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(context.Background())}
	}
}

func (m Model) finishCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		_, err := session.CompleteEarly(context.Background(), "")
		return actionDoneMsg{action: "finish", err: err}
	}
}

func (m Model) reflectCmd(sessionID, emotion, note string) tea.Cmd {
	return func() tea.Msg {
		return ReflectionSavedMsg{Err: m.port.RecordReflection(context.Background(), sessionID, emotion, note)}
	}
}

func closeCmd(session SessionPort) tea.Cmd {
	return func() tea.Msg {
		_ = session.Close()
		return nil
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func clockFace(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func indicator(label string, on bool) string {
	if on {
		return theme.Good.Render("● " + label)
	}
	return theme.Muted.Render("○ " + label)
}

func sumTally(tally map[string]int) int {
	total := 0
	for _, n := range tally {
		total += n
	}
	return total
}

// Apply runs a palette command against the practice screen and returns a
// status line describing the outcome.
func (m Model) Apply(verb, arg string) (Model, tea.Cmd, string) {
	switch verb {
	case "stage", "minutes", "posture":
		if m.mode != modeSetup {
			return m, nil, verb + ": only before a session starts"
		}
	case "pause", "resume", "finish":
		if !m.InSession() || m.session == nil {
			return m, nil, verb + ": no session running"
		}
	}

	switch verb {
	case "stage":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return m, nil, "usage: stage <id>"
		}
		for i, s := range m.stages {
			if s.ID == id {
				m.selectStage(i)
				return m, nil, "stage " + s.Name
			}
		}
		return m, nil, fmt.Sprintf("no stage %d", id)
	case "minutes":
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return m, nil, "usage: minutes <n>"
		}
		m.minutes = n
		return m, nil, fmt.Sprintf("length %d min", n)
	case "posture":
		arg = strings.ToLower(strings.TrimSpace(arg))
		for i, p := range postures {
			if p == arg {
				m.posture = i
				return m, nil, "posture " + p
			}
		}
		return m, nil, "postures: " + strings.Join(postures, ", ")
	case "pause":
		return m, m.actionCmd("pause", m.session.Pause), "pausing"
	case "resume":
		return m, m.actionCmd("resume", m.session.Resume), "resuming"
	case "finish":
		return m, m.finishCmd(), "finishing"
	case "recovery:discard":
		if m.mode == modeRestore {
			m.mode = modeSetup
		}
		return m, m.discardCmd(), "recovery slot cleared"
	}
	return m, nil, "unknown command: " + verb
}
