package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"atelier/backend/internal/domain"
	"atelier/backend/internal/store"
)

type ScheduleRepo struct {
	db bun.IDB
}

func NewScheduleRepo(db bun.IDB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) LoadWorkSchedule(ctx context.Context, ownerID string) (domain.WorkSchedule, error) {
	var row domain.WorkSchedule
	err := r.db.NewSelect().
		Model(&row).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkSchedule{}, store.ErrNotFound
		}
		return domain.WorkSchedule{}, err
	}
	return row, nil
}
