package usecase

import (
	"context"

	"scrollkitty/internal/modules/health/domain"
	"scrollkitty/internal/modules/health/dto"
	healthin "scrollkitty/internal/modules/health/port/in"
	"scrollkitty/internal/modules/health/service"
	"scrollkitty/internal/platform/healthband"
)

type Interactor struct {
	svc *service.LedgerService
}

func NewInteractor(svc *service.LedgerService) healthin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Initialize(ctx context.Context, input dto.InitializeInput) (dto.InitializeOutput, error) {
	ledger, changed, err := i.svc.Initialize(ctx, input.AppIDs)
	if err != nil {
		return dto.InitializeOutput{}, err
	}
	return dto.InitializeOutput{Changed: changed, AppCount: len(ledger.Records), Aggregate: ledger.Aggregate()}, nil
}

func (i *Interactor) Deduct(ctx context.Context, input dto.DeductInput) (dto.DeductOutput, error) {
	result, err := i.svc.Deduct(ctx, input.AppID, input.Amount)
	if err != nil {
		return dto.DeductOutput{}, err
	}
	return dto.DeductOutput{
		Applied:      result.Applied,
		HealthBefore: result.Before,
		HealthAfter:  result.After,
		Band:         healthband.Classify(result.After).String(),
	}, nil
}

func (i *Interactor) ResetAll(ctx context.Context) error {
	return i.svc.ResetAll(ctx)
}

func (i *Interactor) EnsureDay(ctx context.Context) (bool, error) {
	return i.svc.EnsureDay(ctx)
}

func (i *Interactor) Aggregate(ctx context.Context) (int, error) {
	ledger, err := i.svc.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return ledger.Aggregate(), nil
}

func (i *Interactor) CachedAggregate(ctx context.Context) (int, error) {
	return i.svc.CachedAggregate(ctx)
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	ledger, err := i.svc.Snapshot(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	return toStatus(ledger), nil
}

func toStatus(ledger domain.Ledger) dto.StatusOutput {
	aggregate := ledger.Aggregate()
	out := dto.StatusOutput{
		Aggregate: aggregate,
		Band:      healthband.Classify(aggregate).String(),
		ResetDay:  ledger.ResetDay,
		Apps:      make([]dto.AppOutput, 0, len(ledger.Records)),
	}
	for _, id := range ledger.AppIDs() {
		rec := ledger.Records[id]
		out.Apps = append(out.Apps, dto.AppOutput{
			AppID:           rec.AppID,
			CurrentHP:       rec.CurrentHP,
			MaxHP:           rec.MaxHP,
			LastDeductionAt: rec.LastDeductionAt,
		})
	}
	return out
}
