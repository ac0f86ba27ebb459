package store

import (
	"context"
	"time"

	"atelier/backend/internal/domain"
)

type AppointmentRepository interface {
	// ListBooked returns the owner's appointments that end after from, ordered by start.
	// A nil from returns every appointment.
	ListBooked(ctx context.Context, ownerID string, from *time.Time) ([]domain.Appointment, error)

	// InOwnerTransaction runs fn with writers to the owner's calendar serialized.
	InOwnerTransaction(ctx context.Context, ownerID string, fn func(ctx context.Context, tx CalendarTx) error) error
}
