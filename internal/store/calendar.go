package store

import (
	"context"
	"time"

	"atelier/backend/internal/domain"
)

type CalendarTx interface {
	ListBooked(ctx context.Context, ownerID string, from *time.Time) ([]domain.Appointment, error)
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, bool, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ListProjectAppointments(ctx context.Context, ownerID string, project domain.Project) ([]domain.Appointment, error)
}
