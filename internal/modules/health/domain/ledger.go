package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "scrollkitty/internal/platform/errors"
)

// TotalHP is split evenly across tracked apps.
const TotalHP = 100.0

type AppHealthRecord struct {
	AppID           string
	CurrentHP       float64
	MaxHP           float64
	LastDeductionAt *time.Time
}

func (r AppHealthRecord) Validate() error {
	if r.AppID == "" {
		return fmt.Errorf("app id is required")
	}
	if math.IsNaN(r.CurrentHP) || math.IsNaN(r.MaxHP) || math.IsInf(r.CurrentHP, 0) || math.IsInf(r.MaxHP, 0) {
		return fmt.Errorf("app %s: non-finite hp", r.AppID)
	}
	if r.MaxHP <= 0 {
		return fmt.Errorf("app %s: max hp must be positive", r.AppID)
	}
	if r.CurrentHP < 0 || r.CurrentHP > r.MaxHP {
		return fmt.Errorf("app %s: current hp %.2f outside [0, %.2f]", r.AppID, r.CurrentHP, r.MaxHP)
	}
	return nil
}

// Ledger holds per-app health. ResetDay is the day key of the last day-boundary reset.
type Ledger struct {
	Records  map[string]AppHealthRecord
	ResetDay string
}

func NewLedger() Ledger {
	return Ledger{Records: map[string]AppHealthRecord{}}
}

func (l Ledger) Clone() Ledger {
	out := Ledger{Records: make(map[string]AppHealthRecord, len(l.Records)), ResetDay: l.ResetDay}
	for id, rec := range l.Records {
		if rec.LastDeductionAt != nil {
			at := *rec.LastDeductionAt
			rec.LastDeductionAt = &at
		}
		out.Records[id] = rec
	}
	return out
}

func (l Ledger) Validate() error {
	for id, rec := range l.Records {
		if id != rec.AppID {
			return fmt.Errorf("record key %q does not match app id %q", id, rec.AppID)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AppIDs returns tracked app ids in stable order.
func (l Ledger) AppIDs() []string {
	ids := make([]string, 0, len(l.Records))
	for id := range l.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Initialize splits TotalHP evenly across appIDs and reports whether anything changed.
// An empty set or the identical set is a no-op. A different set keeps the current
// health fraction so editing tracked apps never refills health.
func (l *Ledger) Initialize(appIDs []string) bool {
	ids := uniqueSorted(appIDs)
	if len(ids) == 0 {
		return false
	}
	if sameIDs(l.AppIDs(), ids) {
		return false
	}
	fraction := l.fraction()
	share := TotalHP / float64(len(ids))
	records := make(map[string]AppHealthRecord, len(ids))
	for _, id := range ids {
		records[id] = AppHealthRecord{AppID: id, CurrentHP: share * fraction, MaxHP: share}
	}
	l.Records = records
	return true
}

// Deduct lowers one app's health by amount, clamped to [0, MaxHP].
func (l *Ledger) Deduct(appID string, amount float64, at time.Time) error {
	rec, ok := l.Records[appID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownApp, appID)
	}
	if math.IsNaN(amount) {
		amount = 0
	}
	rec.CurrentHP = clamp(rec.CurrentHP-amount, 0, rec.MaxHP)
	stamp := at
	rec.LastDeductionAt = &stamp
	l.Records[appID] = rec
	return nil
}

// ResetAll restores every record to full health. Calling it twice equals calling it once.
func (l *Ledger) ResetAll() {
	for id, rec := range l.Records {
		rec.CurrentHP = rec.MaxHP
		rec.LastDeductionAt = nil
		l.Records[id] = rec
	}
}

// Aggregate is round(ΣCurrentHP/ΣMaxHP×100) in [0,100]; an empty ledger is full health.
func (l Ledger) Aggregate() int {
	return int(clamp(math.Round(l.fraction()*100), 0, 100))
}

func (l Ledger) fraction() float64 {
	var current, max float64
	for _, rec := range l.Records {
		current += rec.CurrentHP
		max += rec.MaxHP
	}
	if max <= 0 {
		return 1
	}
	return clamp(current/max, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
