package domain

import (
	"fmt"
	"time"

	"scrollkitty/internal/platform/clock"
	"scrollkitty/internal/platform/healthband"
)

type Trigger string

const (
	TriggerWelcomeOnce    Trigger = "welcome_once"
	TriggerDailyWelcome   Trigger = "daily_welcome"
	TriggerHealthBandDrop Trigger = "health_band_drop"
	TriggerNightly        Trigger = "nightly"
	TriggerTerminal       Trigger = "terminal"
)

// Triggers lists every trigger in decision priority order.
var Triggers = []Trigger{TriggerTerminal, TriggerNightly, TriggerHealthBandDrop, TriggerWelcomeOnce, TriggerDailyWelcome}

// GlobalScope is the flag scope of triggers that fire once ever.
const GlobalScope = "*"

func (t Trigger) Validate() error {
	for _, known := range Triggers {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("unknown trigger %q", string(t))
}

// Family groups triggers whose messages must not repeat each other.
func (t Trigger) Family() string {
	switch t {
	case TriggerWelcomeOnce, TriggerDailyWelcome:
		return "welcome"
	default:
		return string(t)
	}
}

// FamilyTriggers returns every trigger sharing family.
func FamilyTriggers(family string) []Trigger {
	out := make([]Trigger, 0, 2)
	for _, t := range Triggers {
		if t.Family() == family {
			out = append(out, t)
		}
	}
	return out
}

// Terminal tier text is held to the stricter vocabulary rules.
func (t Trigger) Terminal() bool {
	return t == TriggerTerminal
}

// EventScope is the flag scope of a band drop narrated for one usage event.
func EventScope(eventID string) string {
	return "event:" + eventID
}

type FlagKey struct {
	Scope   string
	Trigger Trigger
}

// FlagSet maps claimed flags to the time they were claimed.
type FlagSet map[FlagKey]time.Time

func (f FlagSet) Fired(scope string, t Trigger) (time.Time, bool) {
	at, ok := f[FlagKey{Scope: scope, Trigger: t}]
	return at, ok
}

// NightlySchedule locates the nightly window: Hour:Minute local, Window wide, centered.
type NightlySchedule struct {
	Hour   int
	Minute int
	Window time.Duration
}

// Target returns the nightly time whose window contains now.
func (s NightlySchedule) Target(now time.Time) (time.Time, bool) {
	half := s.Window / 2
	base := clock.StartOfDay(now)
	for _, offset := range []int{0, -1, 1} {
		day := base.AddDate(0, 0, offset)
		target := time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, now.Location())
		if !now.Before(target.Add(-half)) && now.Before(target.Add(half)) {
			return target, true
		}
	}
	return time.Time{}, false
}

// GrantSnapshot is the most recent usage grant as the trigger engine sees it.
type GrantSnapshot struct {
	EventID      string
	At           time.Time
	HealthBefore int
	HealthAfter  int
}

// CrossedDown reports a drop into a worse band other than Dead.
func (g GrantSnapshot) CrossedDown() bool {
	before := healthband.Classify(g.HealthBefore)
	after := healthband.Classify(g.HealthAfter)
	return after != healthband.Dead && after.Worse(before)
}

// DecisionInput is everything the trigger decision reads. Flags must hold the
// entries for Scopes(now, grant).
type DecisionInput struct {
	Now         time.Time
	Health      int
	Nightly     NightlySchedule
	LatestGrant *GrantSnapshot
	Flags       FlagSet
}

type Decision struct {
	Trigger Trigger
	Scope   string
}

// Scopes lists the flag scopes a decision at now may consult.
func Scopes(now time.Time, grant *GrantSnapshot) []string {
	day := clock.StartOfDay(now)
	scopes := []string{
		GlobalScope,
		clock.DayKey(day.AddDate(0, 0, -1)),
		clock.DayKey(day),
		clock.DayKey(day.AddDate(0, 0, 1)),
	}
	if grant != nil && grant.EventID != "" {
		scopes = append(scopes, EventScope(grant.EventID))
	}
	return scopes
}

// Decide picks at most one trigger to fire, in priority order.
func Decide(in DecisionInput) (Decision, bool) {
	today := clock.DayKey(in.Now)

	_, terminalToday := in.Flags.Fired(today, TriggerTerminal)
	if in.Health <= 0 && !terminalToday {
		return Decision{Trigger: TriggerTerminal, Scope: today}, true
	}

	if target, ok := in.Nightly.Target(in.Now); ok {
		day := clock.DayKey(target)
		_, terminal := in.Flags.Fired(day, TriggerTerminal)
		_, nightly := in.Flags.Fired(day, TriggerNightly)
		if !terminal && !nightly {
			return Decision{Trigger: TriggerNightly, Scope: day}, true
		}
	}

	if g := in.LatestGrant; g != nil && g.EventID != "" && clock.DayKey(g.At.In(in.Now.Location())) == today && g.CrossedDown() {
		scope := EventScope(g.EventID)
		if _, narrated := in.Flags.Fired(scope, TriggerHealthBandDrop); !narrated {
			return Decision{Trigger: TriggerHealthBandDrop, Scope: scope}, true
		}
	}

	welcomedAt, welcomed := in.Flags.Fired(GlobalScope, TriggerWelcomeOnce)
	if !welcomed {
		return Decision{Trigger: TriggerWelcomeOnce, Scope: GlobalScope}, true
	}
	if clock.DayKey(welcomedAt.In(in.Now.Location())) != today {
		if _, done := in.Flags.Fired(today, TriggerDailyWelcome); !done {
			return Decision{Trigger: TriggerDailyWelcome, Scope: today}, true
		}
	}
	return Decision{}, false
}
