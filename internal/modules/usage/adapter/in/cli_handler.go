package in

import (
	"context"

	usagedto "scrollkitty/internal/modules/usage/dto"
	usagein "scrollkitty/internal/modules/usage/port/in"
)

type CLIHandler struct {
	usecase usagein.Usecase
}

func NewCLIHandler(usecase usagein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Grant(ctx context.Context, appID, appName string, hp float64, minutes int) (usagedto.GrantOutput, error) {
	return h.usecase.Grant(ctx, usagedto.GrantInput{AppID: appID, AppName: appName, Amount: hp, Minutes: minutes})
}

func (h CLIHandler) Counters(ctx context.Context) (usagedto.CountersOutput, error) {
	return h.usecase.Counters(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) error {
	return h.usecase.Reset(ctx)
}
