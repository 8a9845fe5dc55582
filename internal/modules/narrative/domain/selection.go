package domain

import "fmt"

// RandomSource isolates the only nondeterministic step of selection.
type RandomSource interface {
	IntN(n int) int
}

// Candidates filters pool for c: first to templates renderable in c, then to
// shapes absent from history. When the shape filter leaves nothing, the
// renderable set is returned. Pure.
func Candidates(pool []Template, history []HistoryEntry, c DailyContext) []Template {
	fields := c.Fields()
	available := make([]Template, 0, len(pool))
	for _, t := range pool {
		if t.Available(fields, c.LimitStatus) {
			available = append(available, t)
		}
	}
	recent := RecentShapes(history)
	fresh := make([]Template, 0, len(available))
	for _, t := range available {
		if _, seen := recent[TemplateShape(t)]; !seen {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		return available
	}
	return fresh
}

// Selection is a rendered template.
type Selection struct {
	Template Template
	Text     string
}

// Select picks uniformly among the candidates and renders the pick.
func Select(pool []Template, history []HistoryEntry, c DailyContext, rnd RandomSource) (Selection, error) {
	candidates := Candidates(pool, history, c)
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("no renderable template for %s/%s", c.Trigger, c.Band)
	}
	pick := candidates[rnd.IntN(len(candidates))]
	text, err := Render(pick, c.Fields())
	if err != nil {
		return Selection{}, err
	}
	return Selection{Template: pick, Text: text}, nil
}
