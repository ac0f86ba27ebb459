package store

import (
	"context"

	"atelier/backend/internal/domain"
)

type ScheduleRepository interface {
	// LoadWorkSchedule returns ErrNotFound when the owner never saved a schedule.
	LoadWorkSchedule(ctx context.Context, ownerID string) (domain.WorkSchedule, error)
}
