package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"scrollkitty/internal/platform/healthband"
)

func TestBuildContextPastLimit(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 10, 22, 0, 0, 0, time.UTC)
	first := time.Date(2026, 8, 10, 8, 5, 0, 0, time.UTC)
	last := time.Date(2026, 8, 10, 21, 40, 0, 0, time.UTC)

	got := BuildContext(TriggerNightly, Usage{Cumulative: 75 * time.Minute, FirstUse: &first, LastUse: &last, Grants: 4}, now, time.Hour, 55, nil)
	want := DailyContext{
		Trigger:      TriggerNightly,
		FirstUseTime: "8:05 AM",
		LastUseTime:  "9:40 PM",
		Cumulative:   "1h 15m",
		DailyLimit:   "1h",
		Band:         healthband.Struggling,
		Health:       55,
		LimitStatus:  LimitPast,
		OverBy:       "15 minutes",
		DayPart:      Night,
		Grants:       4,
		UsedMinutes:  75,
		LimitMinutes: 60,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(DailyContext{}, "VariationSeed")); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildContextWithinAndNone(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	within := BuildContext(TriggerDailyWelcome, Usage{Cumulative: 20 * time.Minute}, now, 90*time.Minute, 100, nil)
	if within.LimitStatus != LimitWithin || within.UnderBy != "1h 10m" || within.OverBy != "" {
		t.Fatalf("unexpected within context %+v", within)
	}
	exact := BuildContext(TriggerDailyWelcome, Usage{Cumulative: time.Hour}, now, time.Hour, 100, nil)
	if exact.LimitStatus != LimitWithin || exact.UnderBy != "0 minutes" {
		t.Fatalf("used == limit is within, got %+v", exact)
	}
	none := BuildContext(TriggerDailyWelcome, Usage{}, now, 0, 100, nil)
	if none.LimitStatus != LimitNone || none.DailyLimit != "" || none.UnderBy != "" || none.Cumulative != "0 minutes" {
		t.Fatalf("unexpected no-limit context %+v", none)
	}
}

func TestBuildContextDeterministic(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)
	terminal := now.Add(-time.Hour)
	a := BuildContext(TriggerTerminal, Usage{Cumulative: 3 * time.Hour, Grants: 9}, now, 2*time.Hour, 0, &terminal)
	b := BuildContext(TriggerTerminal, Usage{Cumulative: 3 * time.Hour, Grants: 9}, now, 2*time.Hour, 0, &terminal)
	if a != b {
		t.Fatalf("contexts differ:\n%+v\n%+v", a, b)
	}
	if a.TerminalTime != "8:30 AM" || a.Band != healthband.Dead {
		t.Fatalf("unexpected terminal context %+v", a)
	}
	c := BuildContext(TriggerTerminal, Usage{Cumulative: 3 * time.Hour, Grants: 10}, now, 2*time.Hour, 0, &terminal)
	if c.VariationSeed == a.VariationSeed {
		t.Fatalf("seed must depend on context fields")
	}
}

func TestDayPart(t *testing.T) {
	t.Parallel()
	cases := map[int]DayPart{0: Night, 4: Night, 5: Morning, 11: Morning, 12: Afternoon, 16: Afternoon, 17: Evening, 20: Evening, 21: Night, 23: Night}
	for hour, want := range cases {
		if got := DayPartAt(time.Date(2026, 1, 1, hour, 30, 0, 0, time.UTC)); got != want {
			t.Fatalf("DayPartAt(%d) = %s, want %s", hour, got, want)
		}
	}
}
