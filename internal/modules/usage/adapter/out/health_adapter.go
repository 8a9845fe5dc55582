package out

import (
	"context"

	healthdto "scrollkitty/internal/modules/health/dto"
	healthin "scrollkitty/internal/modules/health/port/in"
	"scrollkitty/internal/modules/usage/domain"
	usageout "scrollkitty/internal/modules/usage/port/out"
)

type HealthAdapter struct {
	health healthin.Usecase
}

func NewHealthAdapter(health healthin.Usecase) usageout.HealthPort {
	return &HealthAdapter{health: health}
}

func (a *HealthAdapter) EnsureDay(ctx context.Context) error {
	_, err := a.health.EnsureDay(ctx)
	return err
}

func (a *HealthAdapter) Deduct(ctx context.Context, appID string, amount float64) (domain.HealthChange, error) {
	out, err := a.health.Deduct(ctx, healthdto.DeductInput{AppID: appID, Amount: amount})
	if err != nil {
		return domain.HealthChange{}, err
	}
	return domain.HealthChange{Applied: out.Applied, Before: out.HealthBefore, After: out.HealthAfter, Band: out.Band}, nil
}

func (a *HealthAdapter) ResetAll(ctx context.Context) error {
	return a.health.ResetAll(ctx)
}
