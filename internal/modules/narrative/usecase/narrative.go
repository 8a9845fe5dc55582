package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"scrollkitty/internal/modules/narrative/domain"
	"scrollkitty/internal/modules/narrative/dto"
	narrativein "scrollkitty/internal/modules/narrative/port/in"
	"scrollkitty/internal/modules/narrative/service"
	"scrollkitty/internal/platform/duration"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/sqlitedb"
)

type Interactor struct {
	svc *service.TriggerService
}

func NewInteractor(svc *service.TriggerService) narrativein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Evaluate(ctx context.Context, input dto.EvaluateInput) (dto.EvaluateOutput, error) {
	reason, err := domain.ParseReason(input.Reason)
	if err != nil {
		return dto.EvaluateOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	out, err := i.svc.Evaluate(ctx, reason)
	if err != nil {
		return dto.EvaluateOutput{}, err
	}
	return dto.EvaluateOutput{
		Fired:    out.Fired,
		Trigger:  string(out.Trigger),
		Band:     out.Band,
		Health:   out.Health,
		Message:  out.Text,
		Emoji:    out.Emoji,
		Source:   out.Source,
		EventID:  out.EventID,
		Attempts: out.Attempts,
	}, nil
}

func (i *Interactor) Intercept(ctx context.Context) (dto.InterceptOutput, error) {
	in, err := i.svc.Intercept(ctx)
	if err != nil {
		return dto.InterceptOutput{}, err
	}
	labels := make([]string, 0, len(in.Minutes))
	for _, m := range in.Minutes {
		labels = append(labels, duration.FormatMinutes(m))
	}
	return dto.InterceptOutput{
		Band:            string(in.Band),
		Health:          in.Health,
		AllowedMinutes:  append([]int{}, in.Minutes...),
		AllowedLabels:   labels,
		Redirect:        in.Redirect,
		PainAcknowledge: in.Pain,
	}, nil
}

func (i *Interactor) Flags(ctx context.Context) ([]dto.FlagOutput, error) {
	flags, err := i.svc.Flags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FlagOutput, 0, len(flags))
	for key, at := range flags {
		out = append(out, dto.FlagOutput{Scope: key.Scope, Trigger: string(key.Trigger), FiredAt: sqlitedb.FormatTime(at)})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Scope != out[b].Scope {
			return out[a].Scope < out[b].Scope
		}
		return out[a].Trigger < out[b].Trigger
	})
	return out, nil
}

func (i *Interactor) CheckWriter(ctx context.Context) (dto.WriterCheckOutput, error) {
	info, sample, violations, err := i.svc.CheckWriter(ctx)
	if err != nil {
		return dto.WriterCheckOutput{}, err
	}
	out := dto.WriterCheckOutput{Name: info.Name, Version: info.Version, Sample: sample}
	for _, v := range violations {
		out.Violations = append(out.Violations, v.String())
	}
	return out, nil
}

func (i *Interactor) UpdateSettings(input dto.SettingsInput) {
	i.svc.UpdateSettings(SettingsFrom(input))
}

// SettingsFrom converts settings input to service settings.
func SettingsFrom(input dto.SettingsInput) service.Settings {
	return service.Settings{
		DailyLimit: time.Duration(input.DailyLimitMinutes) * time.Minute,
		Nightly: domain.NightlySchedule{
			Hour:   input.NightlyHour,
			Minute: input.NightlyMinute,
			Window: time.Duration(input.NightlyWindowMinutes) * time.Minute,
		},
		HistoryWindow:  input.HistoryWindow,
		WriterAttempts: input.WriterAttempts,
	}
}
