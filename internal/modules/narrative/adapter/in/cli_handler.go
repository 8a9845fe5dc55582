package in

import (
	"context"

	narrativedto "scrollkitty/internal/modules/narrative/dto"
	narrativein "scrollkitty/internal/modules/narrative/port/in"
)

type CLIHandler struct {
	usecase narrativein.Usecase
}

func NewCLIHandler(usecase narrativein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Evaluate(ctx context.Context, reason string) (narrativedto.EvaluateOutput, error) {
	return h.usecase.Evaluate(ctx, narrativedto.EvaluateInput{Reason: reason})
}

func (h CLIHandler) Intercept(ctx context.Context) (narrativedto.InterceptOutput, error) {
	return h.usecase.Intercept(ctx)
}

func (h CLIHandler) Flags(ctx context.Context) ([]narrativedto.FlagOutput, error) {
	return h.usecase.Flags(ctx)
}

func (h CLIHandler) CheckWriter(ctx context.Context) (narrativedto.WriterCheckOutput, error) {
	return h.usecase.CheckWriter(ctx)
}

func (h CLIHandler) UpdateSettings(input narrativedto.SettingsInput) {
	h.usecase.UpdateSettings(input)
}
