package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scrollkitty/internal/platform/healthband"
)

// Field names a value a template may interpolate.
type Field string

const (
	FieldFirstUse     Field = "first_use"
	FieldLastUse      Field = "last_use"
	FieldTerminalTime Field = "terminal_time"
	FieldUsed         Field = "used"
	FieldLimit        Field = "limit"
	FieldOverBy       Field = "over_by"
	FieldUnderBy      Field = "under_by"
	FieldGrants       Field = "grants"
	FieldHealth       Field = "health"
)

var knownFields = map[Field]struct{}{
	FieldFirstUse: {}, FieldLastUse: {}, FieldTerminalTime: {},
	FieldUsed: {}, FieldLimit: {}, FieldOverBy: {}, FieldUnderBy: {},
	FieldGrants: {}, FieldHealth: {},
}

var (
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	ErrMissingField       = errors.New("missing field value")
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// Fields holds formatted values by name. Absent means not applicable.
type Fields map[Field]string

// Fields exposes the context's applicable values for interpolation.
func (c DailyContext) Fields() Fields {
	f := Fields{
		FieldUsed:   c.Cumulative,
		FieldHealth: strconv.Itoa(c.Health),
	}
	set := func(k Field, v string) {
		if v != "" {
			f[k] = v
		}
	}
	set(FieldFirstUse, c.FirstUseTime)
	set(FieldLastUse, c.LastUseTime)
	set(FieldTerminalTime, c.TerminalTime)
	set(FieldLimit, c.DailyLimit)
	set(FieldOverBy, c.OverBy)
	set(FieldUnderBy, c.UnderBy)
	if c.Grants > 0 {
		f[FieldGrants] = strconv.Itoa(c.Grants)
	}
	return f
}

// LimitTag restricts a template to one limit status. Empty matches any.
type LimitTag string

const (
	LimitAny       LimitTag = ""
	LimitTagWithin LimitTag = "within"
	LimitTagPast   LimitTag = "past"
)

func (t LimitTag) Matches(status LimitStatus) bool {
	switch t {
	case LimitAny:
		return true
	case LimitTagWithin:
		return status == LimitWithin
	case LimitTagPast:
		return status == LimitPast
	default:
		return false
	}
}

type Template struct {
	ID    string
	Text  string
	Emoji string
	Limit LimitTag
}

// Placeholders returns the distinct placeholder names in t, in order of appearance.
func (t Template) Placeholders() []Field {
	matches := placeholderPattern.FindAllStringSubmatch(t.Text, -1)
	out := make([]Field, 0, len(matches))
	seen := map[Field]struct{}{}
	for _, m := range matches {
		f := Field(m[1])
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Unconditional templates render in every context.
func (t Template) Unconditional() bool {
	if t.Limit != LimitAny {
		return false
	}
	for _, f := range t.Placeholders() {
		if f != FieldUsed && f != FieldHealth {
			return false
		}
	}
	return true
}

// Available reports whether every placeholder has a value and the limit tag fits.
func (t Template) Available(fields Fields, status LimitStatus) bool {
	if !t.Limit.Matches(status) {
		return false
	}
	for _, f := range t.Placeholders() {
		if _, ok := fields[f]; !ok {
			return false
		}
	}
	return true
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template id is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("template %s: text is required", t.ID)
	}
	switch t.Limit {
	case LimitAny, LimitTagWithin, LimitTagPast:
	default:
		return fmt.Errorf("template %s: unknown limit tag %q", t.ID, string(t.Limit))
	}
	for _, f := range t.Placeholders() {
		if _, ok := knownFields[f]; !ok {
			return fmt.Errorf("template %s: %w %q", t.ID, ErrUnknownPlaceholder, string(f))
		}
	}
	if strings.ContainsAny(placeholderPattern.ReplaceAllString(t.Text, ""), "{}") {
		return fmt.Errorf("template %s: unbalanced braces", t.ID)
	}
	return nil
}

// Render interpolates fields into t. Unknown or unset placeholders fail.
func Render(t Template, fields Fields) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(t.Text, func(token string) string {
		name := Field(token[1 : len(token)-1])
		if _, ok := knownFields[name]; !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("render %s: %w %q", t.ID, ErrUnknownPlaceholder, string(name))
			}
			return token
		}
		v, ok := fields[name]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("render %s: %w %q", t.ID, ErrMissingField, string(name))
			}
			return token
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

type PoolKey struct {
	Trigger Trigger
	Band    healthband.Band
}

func (k PoolKey) String() string {
	return string(k.Trigger) + "/" + string(k.Band)
}

// RequiredPools lists every (trigger, band) a decision can reach.
func RequiredPools() []PoolKey {
	keys := []PoolKey{{Trigger: TriggerTerminal, Band: healthband.Dead}}
	for _, b := range []healthband.Band{healthband.Worn, healthband.Struggling, healthband.Critical} {
		keys = append(keys, PoolKey{Trigger: TriggerHealthBandDrop, Band: b})
	}
	for _, b := range []healthband.Band{healthband.Healthy, healthband.Worn, healthband.Struggling, healthband.Critical} {
		keys = append(keys, PoolKey{Trigger: TriggerNightly, Band: b})
	}
	for _, t := range []Trigger{TriggerWelcomeOnce, TriggerDailyWelcome} {
		for _, b := range healthband.All {
			keys = append(keys, PoolKey{Trigger: t, Band: b})
		}
	}
	return keys
}

// Catalog is the authored content: message pools and interception strings.
type Catalog struct {
	Pools    map[PoolKey][]Template
	Redirect map[healthband.Band][]string
	Pain     map[healthband.Band][]string
}

func NewCatalog() Catalog {
	return Catalog{
		Pools:    map[PoolKey][]Template{},
		Redirect: map[healthband.Band][]string{},
		Pain:     map[healthband.Band][]string{},
	}
}

func (c Catalog) Pool(key PoolKey) []Template {
	return c.Pools[key]
}

// Validate checks every reachable pool exists and holds an unconditional
// template, so availability filtering never empties a pool.
func (c Catalog) Validate() error {
	ids := map[string]PoolKey{}
	keys := make([]PoolKey, 0, len(c.Pools))
	for k := range c.Pools {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, key := range keys {
		if err := key.Trigger.Validate(); err != nil {
			return fmt.Errorf("pool %s: %w", key, err)
		}
		if err := key.Band.Validate(); err != nil {
			return fmt.Errorf("pool %s: %w", key, err)
		}
		for _, t := range c.Pools[key] {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("pool %s: %w", key, err)
			}
			if prev, dup := ids[t.ID]; dup {
				return fmt.Errorf("template id %s used in %s and %s", t.ID, prev, key)
			}
			ids[t.ID] = key
		}
	}
	for _, key := range RequiredPools() {
		pool := c.Pools[key]
		if len(pool) == 0 {
			return fmt.Errorf("missing pool %s", key)
		}
		if !hasUnconditional(pool) {
			return fmt.Errorf("pool %s has no template usable in every context", key)
		}
	}
	for _, b := range healthband.All {
		if len(c.Redirect[b]) == 0 {
			return fmt.Errorf("missing redirect strings for %s", b)
		}
		if len(c.Pain[b]) == 0 {
			return fmt.Errorf("missing pain strings for %s", b)
		}
	}
	return nil
}

func hasUnconditional(pool []Template) bool {
	for _, t := range pool {
		if t.Unconditional() {
			return true
		}
	}
	return false
}
