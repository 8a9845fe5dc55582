package in

import (
	"context"

	timelinedto "scrollkitty/internal/modules/timeline/dto"
	timelinein "scrollkitty/internal/modules/timeline/port/in"
)

type CLIHandler struct {
	usecase timelinein.Usecase
}

func NewCLIHandler(usecase timelinein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, limit int) ([]timelinedto.EventOutput, error) {
	return h.usecase.List(ctx, timelinedto.ListInput{Limit: limit})
}
