// Package healthband maps aggregate health to the tier that drives tone and severity.
// It is the only place the tier breakpoints live.
package healthband

import "fmt"

type Band string

const (
	Healthy    Band = "healthy"
	Worn       Band = "worn"
	Struggling Band = "struggling"
	Critical   Band = "critical"
	Dead       Band = "dead"
)

const (
	healthyFloor    = 80
	wornFloor       = 60
	strugglingFloor = 40
	criticalFloor   = 1
)

// All lists bands from best to worst.
var All = []Band{Healthy, Worn, Struggling, Critical, Dead}

// Classify maps health in [0,100] to its band. Out-of-range values clamp.
func Classify(health int) Band {
	switch {
	case health >= healthyFloor:
		return Healthy
	case health >= wornFloor:
		return Worn
	case health >= strugglingFloor:
		return Struggling
	case health >= criticalFloor:
		return Critical
	default:
		return Dead
	}
}

// Rank orders bands: Healthy is 0, Dead is 4. Unknown bands rank after Dead.
func (b Band) Rank() int {
	for i, candidate := range All {
		if candidate == b {
			return i
		}
	}
	return len(All)
}

// Worse reports whether b is a lower tier than other.
func (b Band) Worse(other Band) bool {
	return b.Rank() > other.Rank()
}

func (b Band) String() string {
	return string(b)
}

func (b Band) Validate() error {
	if b.Rank() == len(All) {
		return fmt.Errorf("unknown health band %q", string(b))
	}
	return nil
}

func Parse(raw string) (Band, error) {
	b := Band(raw)
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b, nil
}
