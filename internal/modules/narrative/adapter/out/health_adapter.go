package out

import (
	"context"

	healthin "scrollkitty/internal/modules/health/port/in"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
)

type HealthAdapter struct {
	health healthin.Usecase
}

func NewHealthAdapter(health healthin.Usecase) narrativeout.HealthPort {
	return &HealthAdapter{health: health}
}

func (a *HealthAdapter) EnsureDay(ctx context.Context) error {
	_, err := a.health.EnsureDay(ctx)
	return err
}

func (a *HealthAdapter) Aggregate(ctx context.Context) (int, error) {
	return a.health.Aggregate(ctx)
}
