package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestComplete(t *testing.T) {
	t.Parallel()
	apps := []string{"instagram", "tiktok", "twitch"}
	cases := []struct {
		in   string
		want string
	}{
		{in: "gr", want: "grant "},
		{in: "re", want: "re"},
		{in: "res", want: "reset "},
		{in: "grant ti", want: "grant tiktok "},
		{in: "grant t", want: "grant t"},
		{in: "grant tw", want: "grant twitch "},
		{in: "grant x", want: "grant x"},
		{in: "grant tiktok 5", want: "grant tiktok 5"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := Complete(tc.in, apps); got != tc.want {
			t.Fatalf("Complete(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompleteExtendsToCommonPrefix(t *testing.T) {
	t.Parallel()
	if got := Complete("grant in", []string{"instagram", "insight"}); got != "grant ins" {
		t.Fatalf("got %q", got)
	}
}

func TestTabCompletesTrackedApp(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.SetApps([]string{"youtube", "tiktok"})
	p.Open()
	for _, r := range "grant yo" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "grant youtube" {
		t.Fatalf("unexpected submit %#v", msg)
	}
}

func TestGrantSuggestionsListApps(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.SetApps([]string{"tiktok"})
	p.Open()
	p.input.SetValue("grant ")
	hints := p.suggestions()
	if len(hints) != 2 || hints[1] != "apps: tiktok" {
		t.Fatalf("unexpected hints %v", hints)
	}
	p.SetApps(nil)
	if hints := p.suggestions(); len(hints) != 1 {
		t.Fatalf("expected init hint, got %v", hints)
	}
}
