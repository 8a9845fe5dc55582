package out

import (
	"context"

	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	timelinedto "scrollkitty/internal/modules/timeline/dto"
	timelinein "scrollkitty/internal/modules/timeline/port/in"
)

const (
	eventUsageGranted       = "usage_granted"
	eventNarrativeGenerated = "narrative_generated"
)

type TimelineAdapter struct {
	timeline timelinein.Usecase
}

func NewTimelineAdapter(timeline timelinein.Usecase) narrativeout.TimelinePort {
	return &TimelineAdapter{timeline: timeline}
}

func (a *TimelineAdapter) LatestGrant(ctx context.Context) (*domain.GrantSnapshot, error) {
	e, ok, err := a.timeline.Latest(ctx, eventUsageGranted)
	if err != nil || !ok {
		return nil, err
	}
	return &domain.GrantSnapshot{
		EventID:      e.ID,
		At:           e.Timestamp,
		HealthBefore: e.HealthBefore,
		HealthAfter:  e.HealthAfter,
	}, nil
}

func (a *TimelineAdapter) RecordNarrative(ctx context.Context, record domain.NarrativeRecord) (string, error) {
	out, err := a.timeline.Append(ctx, timelinedto.AppendInput{
		Timestamp:    record.At,
		HealthBefore: record.HealthBefore,
		HealthAfter:  record.HealthAfter,
		Type:         eventNarrativeGenerated,
		Message:      record.Message,
		Emoji:        record.Emoji,
		Trigger:      string(record.Trigger),
	})
	if err != nil {
		return "", err
	}
	if !out.Appended {
		return "", nil
	}
	return out.Event.ID, nil
}
