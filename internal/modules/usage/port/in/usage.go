package in

import (
	"context"

	"scrollkitty/internal/modules/usage/dto"
)

type Usecase interface {
	Grant(ctx context.Context, input dto.GrantInput) (dto.GrantOutput, error)
	Counters(ctx context.Context) (dto.CountersOutput, error)
	Reset(ctx context.Context) error
}
