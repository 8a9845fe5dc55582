package out_test

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	narrativeout "scrollkitty/internal/modules/narrative/adapter/out"
	"scrollkitty/internal/modules/narrative/domain"
	"scrollkitty/internal/platform/healthband"
)

var bandHealth = map[healthband.Band]int{
	healthband.Healthy:    90,
	healthband.Worn:       70,
	healthband.Struggling: 50,
	healthband.Critical:   20,
	healthband.Dead:       0,
}

func contextsFor(key domain.PoolKey) []domain.DailyContext {
	now := time.Date(2026, 9, 14, 22, 0, 0, 0, time.UTC)
	first := time.Date(2026, 9, 14, 8, 5, 0, 0, time.UTC)
	last := time.Date(2026, 9, 14, 21, 40, 0, 0, time.UTC)
	var terminal *time.Time
	if key.Band == healthband.Dead {
		at := now.Add(-10 * time.Minute)
		terminal = &at
	}
	health := bandHealth[key.Band]
	out := make([]domain.DailyContext, 0, 3)
	for _, usage := range []struct{ used, limit time.Duration }{
		{used: 45 * time.Minute},
		{used: 30 * time.Minute, limit: time.Hour},
		{used: 95 * time.Minute, limit: time.Hour},
	} {
		u := domain.Usage{Cumulative: usage.used, FirstUse: &first, LastUse: &last, Grants: 3}
		out = append(out, domain.BuildContext(key.Trigger, u, now, usage.limit, health, terminal))
	}
	return out
}

func TestEmbeddedCatalogRendersValidText(t *testing.T) {
	t.Parallel()
	catalog, err := narrativeout.LoadEmbeddedCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	for key, pool := range catalog.Pools {
		for _, tpl := range pool {
			rendered := 0
			for _, c := range contextsFor(key) {
				if !tpl.Available(c.Fields(), c.LimitStatus) {
					continue
				}
				text, err := domain.Render(tpl, c.Fields())
				if err != nil {
					t.Fatalf("%s: render: %v", tpl.ID, err)
				}
				if v := domain.Validate(text, c); len(v) > 0 {
					t.Fatalf("%s (%s, limit %s): %q violates %v", tpl.ID, key, c.LimitStatus, text, v)
				}
				if domain.TemplateShape(tpl) != domain.TextShape(text) {
					t.Fatalf("%s: shape %q does not match rendered shape %q", tpl.ID, domain.TemplateShape(tpl), domain.TextShape(text))
				}
				rendered++
			}
			if rendered == 0 {
				t.Fatalf("%s (%s) is never available", tpl.ID, key)
			}
		}
	}
	for _, b := range healthband.All {
		if len(catalog.Redirect[b]) == 0 || len(catalog.Pain[b]) == 0 {
			t.Fatalf("missing interception strings for %s", b)
		}
	}
}

func TestLoadCatalogRejectsMismatchedTrigger(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"templates/nightly.yaml": {Data: []byte("trigger: terminal\npools: {}\n")},
	}
	_, err := narrativeout.LoadCatalog(fsys)
	if err == nil || !strings.Contains(err.Error(), "must match file name") {
		t.Fatalf("expected file name mismatch, got %v", err)
	}
}

func TestLoadCatalogRejectsIncompleteCatalog(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"templates/terminal.yaml": {Data: []byte(`trigger: terminal
pools:
  dead:
    - id: t1
      text: "Goodnight. See you tomorrow."
`)},
	}
	_, err := narrativeout.LoadCatalog(fsys)
	if err == nil || !strings.Contains(err.Error(), "missing pool") {
		t.Fatalf("expected missing pool error, got %v", err)
	}
}

func TestLoadCatalogRejectsUnknownBand(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"templates/terminal.yaml": {Data: []byte("trigger: terminal\npools:\n  sleepy:\n    - id: x\n      text: \"Hi. There.\"\n")},
	}
	if _, err := narrativeout.LoadCatalog(fsys); err == nil {
		t.Fatalf("expected unknown band error")
	}
}
