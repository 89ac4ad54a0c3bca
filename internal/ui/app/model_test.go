package app

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	capabilitydto "pahm/internal/modules/capability/dto"
	journaldto "pahm/internal/modules/journal/dto"
	"pahm/internal/platform/lifecycle"
	"pahm/internal/ui/components"
	historyview "pahm/internal/ui/views/history"
)

type fakeHistory struct{}

func (fakeHistory) List(context.Context, int) ([]journaldto.SessionSummary, error) {
	return []journaldto.SessionSummary{{ID: "s-1", StageID: 2, ActualDurationSeconds: 1200}}, nil
}

func (fakeHistory) Show(_ context.Context, id string) (journaldto.SessionDetail, error) {
	return journaldto.SessionDetail{SessionSummary: journaldto.SessionSummary{ID: id}}, nil
}

func (fakeHistory) Stats(context.Context) (journaldto.StatsOutput, error) {
	return journaldto.StatsOutput{Sessions: 1}, nil
}

type fakeCaps struct {
	mu       sync.Mutex
	doctored int
}

func (*fakeCaps) List(context.Context) ([]capabilitydto.ProviderInfo, error) {
	return nil, nil
}

func (f *fakeCaps) Doctor(context.Context) ([]capabilitydto.DoctorResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctored++
	return nil, nil
}

type fakeSignals struct {
	mu  sync.Mutex
	got []lifecycle.Signal
}

func (f *fakeSignals) Publish(s lifecycle.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, s)
}

func newTestModel() (Model, *fakeSignals) {
	signals := &fakeSignals{}
	return NewModel(nil, fakeHistory{}, &fakeCaps{}, signals), signals
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("update returned %T", next)
	}
	return out, cmd
}

func TestFocusChangesPublishLifecycleSignals(t *testing.T) {
	t.Parallel()
	m, signals := newTestModel()

	m, cmd := step(t, m, tea.BlurMsg{})
	if cmd == nil {
		t.Fatalf("expected publish command on blur")
	}
	cmd()
	_, cmd = step(t, m, tea.FocusMsg{})
	cmd()

	if len(signals.got) != 2 || signals.got[0] != lifecycle.MaySuspend || signals.got[1] != lifecycle.Resumed {
		t.Fatalf("unexpected signals: %v", signals.got)
	}
}

func TestTabCyclesThroughViews(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel()

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabHistory {
		t.Fatalf("expected history tab, got %d", m.activeTab)
	}
	if _, ok := cmd().(historyview.SessionsLoadedMsg); !ok {
		t.Fatalf("entering history should reload sessions")
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabPractice {
		t.Fatalf("expected wrap to practice tab, got %d", m.activeTab)
	}
}

func TestPaletteRoutesCommandsToTheirTab(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel()

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(":")})
	if !m.palette.Visible() || cmd == nil {
		t.Fatalf("expected palette to open")
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("history:refresh")})
	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	submit, ok := cmd().(components.PaletteSubmitMsg)
	if !ok || submit.Input != "history:refresh" {
		t.Fatalf("expected palette submit, got %#v", submit)
	}

	m, cmd = step(t, m, submit)
	if m.activeTab != tabHistory {
		t.Fatalf("expected history tab, got %d", m.activeTab)
	}
	if _, ok := cmd().(historyview.SessionsLoadedMsg); !ok {
		t.Fatalf("expected history reload")
	}

	m, _ = step(t, m, components.PaletteSubmitMsg{Input: "minutes 25"})
	if m.activeTab != tabPractice {
		t.Fatalf("expected practice tab, got %d", m.activeTab)
	}
	if m.status != "length 25 min" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestQuitOutsideSession(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel()
	_, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
