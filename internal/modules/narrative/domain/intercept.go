package domain

import "scrollkitty/internal/platform/healthband"

// AllowedMinutes lists the usage durations an interception may offer in b.
// Dead offers none.
func AllowedMinutes(b healthband.Band) []int {
	switch b {
	case healthband.Healthy:
		return []int{5, 10, 15, 30}
	case healthband.Worn:
		return []int{5, 10, 15}
	case healthband.Struggling:
		return []int{5, 10}
	case healthband.Critical:
		return []int{5}
	default:
		return nil
	}
}

// Interception is what the interception screen shows for the current band.
type Interception struct {
	Band     healthband.Band
	Health   int
	Minutes  []int
	Redirect string
	Pain     string
}

// Intercept picks one redirect and one pain string for health.
func Intercept(catalog Catalog, health int, rnd RandomSource) Interception {
	band := healthband.Classify(health)
	return Interception{
		Band:     band,
		Health:   health,
		Minutes:  AllowedMinutes(band),
		Redirect: pickString(catalog.Redirect[band], rnd),
		Pain:     pickString(catalog.Pain[band], rnd),
	}
}

func pickString(pool []string, rnd RandomSource) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rnd.IntN(len(pool))]
}
