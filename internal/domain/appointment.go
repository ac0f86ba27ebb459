package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"atelier/backend/internal/availability"
)

// Appointment is one booked sitting on an owner's calendar.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	OwnerID   string     `bun:"owner_id,notnull"`
	ProjectID *uuid.UUID `bun:"project_id,type:uuid"`
	Sitting   int        `bun:"sitting,notnull"`
	Title     string     `bun:"title,notnull"`
	StartTime time.Time  `bun:"start_time,notnull"`
	EndTime   time.Time  `bun:"end_time,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) Interval() availability.Interval {
	return availability.Interval{Start: a.StartTime, End: a.EndTime}
}

func Intervals(appts []Appointment) []availability.Interval {
	out := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.Interval())
	}
	return out
}
