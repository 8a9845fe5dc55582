package in

import (
	"context"

	"scrollkitty/internal/modules/health/dto"
)

type Usecase interface {
	Initialize(ctx context.Context, input dto.InitializeInput) (dto.InitializeOutput, error)
	Deduct(ctx context.Context, input dto.DeductInput) (dto.DeductOutput, error)
	ResetAll(ctx context.Context) error
	EnsureDay(ctx context.Context) (bool, error)
	Aggregate(ctx context.Context) (int, error)
	CachedAggregate(ctx context.Context) (int, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
}
