package out

import (
	"context"

	timelinedto "scrollkitty/internal/modules/timeline/dto"
	timelinein "scrollkitty/internal/modules/timeline/port/in"
	"scrollkitty/internal/modules/usage/domain"
	usageout "scrollkitty/internal/modules/usage/port/out"
)

const usageGranted = "usage_granted"

type TimelineAdapter struct {
	timeline timelinein.Usecase
}

func NewTimelineAdapter(timeline timelinein.Usecase) usageout.TimelinePort {
	return &TimelineAdapter{timeline: timeline}
}

// RecordGrant returns the new event id, or "" when the log dropped it as a duplicate.
func (a *TimelineAdapter) RecordGrant(ctx context.Context, record domain.GrantRecord) (string, error) {
	out, err := a.timeline.Append(ctx, timelinedto.AppendInput{
		Timestamp:     record.At,
		SourceAppName: record.AppName,
		HealthBefore:  record.HealthBefore,
		HealthAfter:   record.HealthAfter,
		Type:          usageGranted,
	})
	if err != nil {
		return "", err
	}
	if !out.Appended {
		return "", nil
	}
	return out.Event.ID, nil
}
