package domain

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"atelier/backend/internal/availability"
)

// WorkSchedule is the stored weekly schedule of a calendar owner. Schedule keeps the raw
// JSON as written by the settings UI, either keyed by weekday or as a list.
type WorkSchedule struct {
	bun.BaseModel `bun:"table:work_schedules"`

	OwnerID   string          `bun:"owner_id,pk"`
	Schedule  json.RawMessage `bun:"schedule,type:jsonb,notnull"`
	TimeZone  string          `bun:"time_zone,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

func (s WorkSchedule) WorkDays() []availability.WorkDay {
	return availability.NormalizeSchedule(s.Schedule)
}
