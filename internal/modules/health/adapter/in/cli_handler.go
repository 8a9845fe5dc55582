package in

import (
	"context"

	healthdto "scrollkitty/internal/modules/health/dto"
	healthin "scrollkitty/internal/modules/health/port/in"
)

type CLIHandler struct {
	usecase healthin.Usecase
}

func NewCLIHandler(usecase healthin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Initialize(ctx context.Context, appIDs []string) (healthdto.InitializeOutput, error) {
	return h.usecase.Initialize(ctx, healthdto.InitializeInput{AppIDs: appIDs})
}

func (h CLIHandler) ResetAll(ctx context.Context) error {
	return h.usecase.ResetAll(ctx)
}

func (h CLIHandler) EnsureDay(ctx context.Context) (bool, error) {
	return h.usecase.EnsureDay(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (healthdto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) CachedAggregate(ctx context.Context) (int, error) {
	return h.usecase.CachedAggregate(ctx)
}
