package out

import (
	"context"
	"time"

	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	usagein "scrollkitty/internal/modules/usage/port/in"
)

type UsageAdapter struct {
	usage usagein.Usecase
}

func NewUsageAdapter(usage usagein.Usecase) narrativeout.UsagePort {
	return &UsageAdapter{usage: usage}
}

func (a *UsageAdapter) Today(ctx context.Context) (domain.Usage, error) {
	c, err := a.usage.Counters(ctx)
	if err != nil {
		return domain.Usage{}, err
	}
	return domain.Usage{
		Cumulative: time.Duration(c.CumulativeSeconds) * time.Second,
		FirstUse:   c.FirstGrantAt,
		LastUse:    c.LastGrantAt,
		Grants:     c.GrantCount,
	}, nil
}
