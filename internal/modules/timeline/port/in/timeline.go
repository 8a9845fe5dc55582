package in

import (
	"context"

	"scrollkitty/internal/modules/timeline/dto"
)

type Usecase interface {
	Append(ctx context.Context, input dto.AppendInput) (dto.AppendOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.EventOutput, error)
	Latest(ctx context.Context, eventType string) (dto.EventOutput, bool, error)
}
