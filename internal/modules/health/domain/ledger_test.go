package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/healthband"
)

var noon = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

func TestInitializeSplitsEvenly(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	if !l.Initialize([]string{"tiktok", "instagram", "tiktok", ""}) {
		t.Fatalf("expected initialize to change ledger")
	}
	if len(l.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(l.Records))
	}
	for _, rec := range l.Records {
		if rec.MaxHP != 50 || rec.CurrentHP != 50 {
			t.Fatalf("expected 50/50, got %.2f/%.2f", rec.CurrentHP, rec.MaxHP)
		}
	}
	if l.Initialize(nil) {
		t.Fatalf("empty set must be a no-op")
	}
	if l.Initialize([]string{"instagram", "tiktok"}) {
		t.Fatalf("identical set must be a no-op")
	}
}

func TestReinitializeKeepsHealthFraction(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Initialize([]string{"a", "b"})
	if err := l.Deduct("a", 50, noon); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	l.Initialize([]string{"a", "b", "c", "d"})
	if got := l.Aggregate(); got != 50 {
		t.Fatalf("expected aggregate to stay 50, got %d", got)
	}
	if l.Records["c"].MaxHP != 25 || l.Records["c"].CurrentHP != 12.5 {
		t.Fatalf("unexpected record %+v", l.Records["c"])
	}
}

func TestDeductClampsToRange(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Initialize([]string{"a"})
	for _, amount := range []float64{30, -500, 250, -0.0, math.NaN(), -10, 1e9, -1e9} {
		if err := l.Deduct("a", amount, noon); err != nil {
			t.Fatalf("deduct %v: %v", amount, err)
		}
		rec := l.Records["a"]
		if rec.CurrentHP < 0 || rec.CurrentHP > rec.MaxHP {
			t.Fatalf("hp %.2f escaped [0,%.2f] after %v", rec.CurrentHP, rec.MaxHP, amount)
		}
	}
	if rec := l.Records["a"]; rec.LastDeductionAt == nil || !rec.LastDeductionAt.Equal(noon) {
		t.Fatalf("expected last deduction timestamp to be set")
	}
}

func TestDeductUnknownApp(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Initialize([]string{"a"})
	err := l.Deduct("ghost", 10, noon)
	if !errors.Is(err, apperrors.ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
	if l.Aggregate() != 100 {
		t.Fatalf("unknown app must not change health")
	}
}

func TestResetAllIsIdempotent(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Initialize([]string{"a", "b"})
	_ = l.Deduct("a", 20, noon)
	_ = l.Deduct("b", 45, noon)
	l.ResetAll()
	once := l.Clone()
	l.ResetAll()
	for id, rec := range l.Records {
		prev := once.Records[id]
		if rec.CurrentHP != prev.CurrentHP || rec.MaxHP != prev.MaxHP || rec.LastDeductionAt != nil || prev.LastDeductionAt != nil {
			t.Fatalf("second reset changed %s: %+v vs %+v", id, rec, prev)
		}
	}
	if l.Aggregate() != 100 {
		t.Fatalf("expected full health after reset, got %d", l.Aggregate())
	}
}

func TestAggregateScenarioBoundaryIsHealthy(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Initialize([]string{"A", "B"})
	if err := l.Deduct("A", 20, noon); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if got := l.Aggregate(); got != 80 {
		t.Fatalf("expected aggregate 80, got %d", got)
	}
	if band := healthband.Classify(l.Aggregate()); band != healthband.Healthy {
		t.Fatalf("expected healthy at 80, got %s", band)
	}
}

func TestAggregateEmptyLedgerIsFullHealth(t *testing.T) {
	t.Parallel()
	if got := NewLedger().Aggregate(); got != 100 {
		t.Fatalf("expected 100 for empty ledger, got %d", got)
	}
}

func TestValidateRejectsOutOfRangeRecords(t *testing.T) {
	t.Parallel()
	l := Ledger{Records: map[string]AppHealthRecord{"a": {AppID: "a", CurrentHP: 70, MaxHP: 50}}}
	if err := l.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	l = Ledger{Records: map[string]AppHealthRecord{"a": {AppID: "b", CurrentHP: 1, MaxHP: 50}}}
	if err := l.Validate(); err == nil {
		t.Fatalf("expected key mismatch error")
	}
}
