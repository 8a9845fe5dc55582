package usecase

import (
	"context"

	"scrollkitty/internal/modules/timeline/domain"
	"scrollkitty/internal/modules/timeline/dto"
	timelinein "scrollkitty/internal/modules/timeline/port/in"
	"scrollkitty/internal/modules/timeline/service"
)

type Interactor struct {
	svc *service.EventService
}

func NewInteractor(svc *service.EventService) timelinein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Append(ctx context.Context, input dto.AppendInput) (dto.AppendOutput, error) {
	e, appended, err := i.svc.Append(ctx, domain.Event{
		Timestamp:     input.Timestamp,
		SourceAppName: input.SourceAppName,
		HealthBefore:  input.HealthBefore,
		HealthAfter:   input.HealthAfter,
		Type:          domain.EventType(input.Type),
		Message:       input.Message,
		Emoji:         input.Emoji,
		Trigger:       input.Trigger,
	})
	if err != nil {
		return dto.AppendOutput{}, err
	}
	return dto.AppendOutput{Appended: appended, Event: toOutput(e)}, nil
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) ([]dto.EventOutput, error) {
	events, err := i.svc.List(ctx, input.Limit, input.Since)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, toOutput(e))
	}
	return out, nil
}

func (i *Interactor) Latest(ctx context.Context, eventType string) (dto.EventOutput, bool, error) {
	e, ok, err := i.svc.Latest(ctx, domain.EventType(eventType))
	if err != nil || !ok {
		return dto.EventOutput{}, ok, err
	}
	return toOutput(e), true, nil
}

func toOutput(e domain.Event) dto.EventOutput {
	return dto.EventOutput{
		ID:            e.ID,
		Timestamp:     e.Timestamp,
		SourceAppName: e.SourceAppName,
		HealthBefore:  e.HealthBefore,
		HealthAfter:   e.HealthAfter,
		Type:          string(e.Type),
		Message:       e.Message,
		Emoji:         e.Emoji,
		Trigger:       e.Trigger,
	}
}
