package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"scrollkitty/internal/platform/healthband"
)

func TestRenderInterpolatesTypedFields(t *testing.T) {
	t.Parallel()
	tpl := Template{ID: "t1", Text: "You started at {first_use}. That's {used} so far."}
	out, err := Render(tpl, Fields{FieldFirstUse: "9:05 AM", FieldUsed: "1h 30m"})
	require.NoError(t, err)
	require.Equal(t, "You started at 9:05 AM. That's 1h 30m so far.", out)
}

func TestRenderFailsFast(t *testing.T) {
	t.Parallel()
	_, err := Render(Template{ID: "t2", Text: "Hello {nickname}."}, Fields{})
	require.True(t, errors.Is(err, ErrUnknownPlaceholder), "got %v", err)

	_, err = Render(Template{ID: "t3", Text: "Over by {over_by}."}, Fields{FieldUsed: "5 minutes"})
	require.True(t, errors.Is(err, ErrMissingField), "got %v", err)
}

func TestTemplateValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Template{ID: "a", Text: "Fine {used}."}.Validate())
	require.Error(t, Template{ID: "", Text: "x"}.Validate())
	require.Error(t, Template{ID: "b", Text: "Bad {nickname}."}.Validate())
	require.Error(t, Template{ID: "c", Text: "Open {used."}.Validate())
	require.Error(t, Template{ID: "d", Text: "ok", Limit: "sometimes"}.Validate())
}

func TestAvailability(t *testing.T) {
	t.Parallel()
	fields := Fields{FieldUsed: "5 minutes", FieldHealth: "90"}
	require.True(t, Template{Text: "{used}"}.Available(fields, LimitNone))
	require.False(t, Template{Text: "{over_by}"}.Available(fields, LimitPast))
	require.False(t, Template{Text: "{used}", Limit: LimitTagPast}.Available(fields, LimitWithin))
	require.True(t, Template{Text: "{used}", Limit: LimitTagWithin}.Available(fields, LimitWithin))

	require.True(t, Template{Text: "{used} and {health}"}.Unconditional())
	require.False(t, Template{Text: "{first_use}"}.Unconditional())
	require.False(t, Template{Text: "plain", Limit: LimitTagPast}.Unconditional())
}

func TestCatalogValidateRequiresSafePools(t *testing.T) {
	t.Parallel()
	c := completeCatalog()
	require.NoError(t, c.Validate())

	key := PoolKey{Trigger: TriggerNightly, Band: "worn"}
	c.Pools[key] = []Template{{ID: "only-past", Text: "Past by {over_by}.", Limit: LimitTagPast}}
	require.ErrorContains(t, c.Validate(), "nightly/worn")

	c = completeCatalog()
	delete(c.Pools, PoolKey{Trigger: TriggerTerminal, Band: "dead"})
	require.ErrorContains(t, c.Validate(), "missing pool terminal/dead")

	c = completeCatalog()
	c.Pools[key] = append(c.Pools[key], Template{ID: "welcome_once-healthy", Text: "dup"})
	require.ErrorContains(t, c.Validate(), "used in")

	c = completeCatalog()
	delete(c.Pain, "dead")
	require.ErrorContains(t, c.Validate(), "pain")
}

func completeCatalog() Catalog {
	c := NewCatalog()
	for _, key := range RequiredPools() {
		c.Pools[key] = []Template{{ID: key.String(), Text: "It has been {used}. Still here."}}
	}
	for _, key := range RequiredPools() {
		if key.Trigger == TriggerWelcomeOnce && key.Band == "healthy" {
			c.Pools[key][0].ID = "welcome_once-healthy"
		}
	}
	for _, b := range healthband.All {
		c.Redirect[b] = []string{"Go outside."}
		c.Pain[b] = []string{"That stings."}
	}
	return c
}
