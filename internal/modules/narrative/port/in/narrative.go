package in

import (
	"context"

	"scrollkitty/internal/modules/narrative/dto"
)

type Usecase interface {
	Evaluate(ctx context.Context, input dto.EvaluateInput) (dto.EvaluateOutput, error)
	Intercept(ctx context.Context) (dto.InterceptOutput, error)
	Flags(ctx context.Context) ([]dto.FlagOutput, error)
	CheckWriter(ctx context.Context) (dto.WriterCheckOutput, error)
	UpdateSettings(input dto.SettingsInput)
}
