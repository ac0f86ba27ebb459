package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Project groups the sittings booked for one multi-session service.
type Project struct {
	bun.BaseModel `bun:"table:projects"`

	ID                     uuid.UUID `bun:"id,pk,type:uuid"`
	OwnerID                string    `bun:"owner_id,notnull"`
	Title                  string    `bun:"title,notnull"`
	ServiceDurationMinutes int       `bun:"service_duration_minutes,notnull"`
	Sittings               int       `bun:"sittings,notnull"`
	Frequency              string    `bun:"frequency,notnull"`
	StartDate              time.Time `bun:"start_date,notnull"`
	PricePerSittingCents   int64     `bun:"price_per_sitting_cents,notnull"`
	TotalCostCents         int64     `bun:"total_cost_cents,notnull"`
	CreatedAt              time.Time `bun:"created_at,notnull"`
	UpdatedAt              time.Time `bun:"updated_at,notnull"`
}

func (p *Project) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}
