package usecase

import (
	"context"
	"fmt"
	"time"

	"scrollkitty/internal/modules/usage/dto"
	usagein "scrollkitty/internal/modules/usage/port/in"
	"scrollkitty/internal/modules/usage/service"
	apperrors "scrollkitty/internal/platform/errors"
)

type Interactor struct {
	svc *service.UsageService
}

func NewInteractor(svc *service.UsageService) usagein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Grant(ctx context.Context, input dto.GrantInput) (dto.GrantOutput, error) {
	if input.Minutes < 0 {
		return dto.GrantOutput{}, fmt.Errorf("%w: minutes must be >= 0", apperrors.ErrInvalidInput)
	}
	result, err := i.svc.Grant(ctx, input.AppID, input.AppName, input.Amount, time.Duration(input.Minutes)*time.Minute)
	if err != nil {
		return dto.GrantOutput{}, err
	}
	return dto.GrantOutput{
		Applied:      result.Change.Applied,
		HealthBefore: result.Change.Before,
		HealthAfter:  result.Change.After,
		Band:         result.Change.Band,
		EventID:      result.EventID,
	}, nil
}

func (i *Interactor) Counters(ctx context.Context) (dto.CountersOutput, error) {
	c, err := i.svc.Counters(ctx)
	if err != nil {
		return dto.CountersOutput{}, err
	}
	return dto.CountersOutput{
		Day:               c.Day,
		CumulativeSeconds: c.CumulativeSeconds,
		FirstGrantAt:      c.FirstGrantAt,
		LastGrantAt:       c.LastGrantAt,
		GrantCount:        c.GrantCount,
	}, nil
}

func (i *Interactor) Reset(ctx context.Context) error {
	return i.svc.Reset(ctx)
}
