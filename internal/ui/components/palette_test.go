package components_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pahm/internal/ui/components"
)

func typeInto(p components.Palette, s string) components.Palette {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return p
}

func submit(t *testing.T, p components.Palette) (components.Palette, string) {
	t.Helper()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	msg, ok := cmd().(components.PaletteSubmitMsg)
	if !ok {
		t.Fatalf("expected PaletteSubmitMsg")
	}
	return p, msg.Input
}

func TestPaletteSubmitsTrimmedInputAndRecallsLast(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	_ = p.Open()
	p = typeInto(p, "  stage 3 ")

	p, got := submit(t, p)
	if got != "stage 3" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
	if p.Visible() {
		t.Fatalf("palette should close on submit")
	}

	_ = p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if _, got = submit(t, p); got != "stage 3" {
		t.Fatalf("expected recalled command, got %q", got)
	}
}

func TestPaletteEscCancels(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	_ = p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("palette should close on esc")
	}
	if _, ok := cmd().(components.PaletteCancelMsg); !ok {
		t.Fatalf("expected PaletteCancelMsg")
	}
}

func TestPaletteHintsFilterByVerb(t *testing.T) {
	t.Parallel()
	p := components.NewPalette("stage <1-6>", "posture <name>", "caps:doctor")
	p.SetWidth(80)
	_ = p.Open()
	p = typeInto(p, "po")

	view := p.View()
	if !strings.Contains(view, "posture <name>") {
		t.Fatalf("expected posture hint in view")
	}
	if strings.Contains(view, "caps:doctor") {
		t.Fatalf("unexpected unrelated hint in view")
	}
}
