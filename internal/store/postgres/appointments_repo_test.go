package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"atelier/backend/internal/domain"
)

func TestSameProjectRequest(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	base := domain.Project{
		ID:                     uuid.MustParse("00000000-0000-0000-0000-000000000101"),
		OwnerID:                "artist-1",
		Title:                  "sleeve",
		ServiceDurationMinutes: 180,
		Sittings:               4,
		Frequency:              "monthly",
		StartDate:              start,
		PricePerSittingCents:   25000,
	}

	t.Run("equal requests match regardless of bookkeeping fields", func(t *testing.T) {
		other := base
		other.TotalCostCents = 100000
		other.CreatedAt = start.Add(time.Hour)
		other.StartDate = start.In(time.FixedZone("UTC+2", 2*60*60))
		if !sameProjectRequest(base, other) {
			t.Fatalf("expected requests to match")
		}
	})

	tests := []struct {
		name   string
		mutate func(p *domain.Project)
	}{
		{name: "owner", mutate: func(p *domain.Project) { p.OwnerID = "artist-2" }},
		{name: "title", mutate: func(p *domain.Project) { p.Title = "back piece" }},
		{name: "duration", mutate: func(p *domain.Project) { p.ServiceDurationMinutes = 120 }},
		{name: "sittings", mutate: func(p *domain.Project) { p.Sittings = 3 }},
		{name: "frequency", mutate: func(p *domain.Project) { p.Frequency = "weekly" }},
		{name: "start date", mutate: func(p *domain.Project) { p.StartDate = start.AddDate(0, 0, 1) }},
		{name: "price", mutate: func(p *domain.Project) { p.PricePerSittingCents = 1 }},
	}

	for _, tt := range tests {
		t.Run("differs by "+tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if sameProjectRequest(base, other) {
				t.Fatalf("expected requests to differ")
			}
		})
	}
}
