package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	healthdto "scrollkitty/internal/modules/health/dto"
	narrativedto "scrollkitty/internal/modules/narrative/dto"
	timelinedto "scrollkitty/internal/modules/timeline/dto"
	usagedto "scrollkitty/internal/modules/usage/dto"
)

type fakePorts struct {
	granted []string
	resets  int
}

func (f *fakePorts) Status(context.Context) (healthdto.StatusOutput, error) {
	return healthdto.StatusOutput{Aggregate: 75, Band: "worn"}, nil
}

func (f *fakePorts) Grant(_ context.Context, appID, _ string, hp float64, _ int) (usagedto.GrantOutput, error) {
	f.granted = append(f.granted, appID)
	return usagedto.GrantOutput{Applied: true, HealthBefore: 100, HealthAfter: 100 - int(hp), Band: "worn"}, nil
}

func (f *fakePorts) Counters(context.Context) (usagedto.CountersOutput, error) {
	return usagedto.CountersOutput{}, nil
}

func (f *fakePorts) Reset(context.Context) error {
	f.resets++
	return nil
}

func (f *fakePorts) List(context.Context, int) ([]timelinedto.EventOutput, error) {
	return nil, nil
}

func (f *fakePorts) Evaluate(context.Context, string) (narrativedto.EvaluateOutput, error) {
	return narrativedto.EvaluateOutput{Fired: true, Trigger: "health_band_drop", Message: "Ouch. That one stung.", Emoji: "😿"}, nil
}

func (f *fakePorts) Intercept(context.Context) (narrativedto.InterceptOutput, error) {
	return narrativedto.InterceptOutput{Band: "worn", AllowedLabels: []string{"5 minutes"}}, nil
}

func TestParseGrant(t *testing.T) {
	t.Parallel()
	req, err := parseGrant([]string{"grant", "tiktok", "12.5", "15"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.appID != "tiktok" || req.hp != 12.5 || req.minutes != 15 {
		t.Fatalf("unexpected request %+v", req)
	}
	for _, bad := range [][]string{
		{"grant", "tiktok"},
		{"grant", "tiktok", "lots"},
		{"grant", "tiktok", "5", "-3"},
	} {
		if _, err := parseGrant(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestPaletteGrantThenEvaluate(t *testing.T) {
	t.Parallel()
	ports := &fakePorts{}
	m := NewModel(ports, ports, ports, ports)

	next, cmd := m.executePalette("grant tiktok 25 10")
	if cmd == nil {
		t.Fatalf("expected grant command")
	}
	granted := cmd()
	if len(ports.granted) != 1 || ports.granted[0] != "tiktok" {
		t.Fatalf("grant not issued: %v", ports.granted)
	}

	updated, cmd := next.(Model).Update(granted)
	if got := updated.(Model).status; got != "health 100 → 75 (worn)" {
		t.Fatalf("unexpected status %q", got)
	}
	evaluated, ok := cmd().(evaluatedMsg)
	if !ok || !evaluated.out.Fired {
		t.Fatalf("expected an evaluation after the grant, got %#v", evaluated)
	}
	final, _ := updated.(Model).Update(evaluated)
	if final.(Model).kittyView.View() == "" {
		t.Fatalf("expected kitty view")
	}
}

func TestUnknownPaletteCommand(t *testing.T) {
	t.Parallel()
	ports := &fakePorts{}
	next, cmd := NewModel(ports, ports, ports, ports).executePalette("dance")
	if cmd != nil {
		t.Fatalf("unexpected command")
	}
	if got := next.(Model).status; got != "unknown command: dance" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestQuitKey(t *testing.T) {
	t.Parallel()
	ports := &fakePorts{}
	_, cmd := NewModel(ports, ports, ports, ports).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}
