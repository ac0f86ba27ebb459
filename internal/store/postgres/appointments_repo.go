package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"atelier/backend/internal/domain"
	"atelier/backend/internal/store"
)

const (
	pgExclusionViolation = "23P01"
	noOverlapConstraint  = "appointments_no_overlap"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type calendarTx struct {
	tx bun.IDB
}

func (r *AppointmentRepo) ListBooked(ctx context.Context, ownerID string, from *time.Time) ([]domain.Appointment, error) {
	return listBooked(ctx, r.db, ownerID, from)
}

func (r *AppointmentRepo) InOwnerTransaction(ctx context.Context, ownerID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockOwnerCalendar(ctx, tx, ownerID); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

func lockOwnerCalendar(ctx context.Context, tx bun.Tx, ownerID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID).Exec(ctx)
	return err
}

func listBooked(ctx context.Context, db bun.IDB, ownerID string, from *time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID)
	if from != nil {
		q = q.Where("end_time > ?", from.UTC())
	}
	if err := q.OrderExpr("start_time ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ListBooked(ctx context.Context, ownerID string, from *time.Time) ([]domain.Appointment, error) {
	return listBooked(ctx, r.tx, ownerID, from)
}

// CreateProject inserts the project row. When a row with the same id exists and describes the
// same request, it is returned with replayed set instead of failing.
func (r calendarTx) CreateProject(ctx context.Context, project domain.Project) (domain.Project, bool, error) {
	m := project
	res, err := r.tx.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Project{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Project{}, false, err
	}
	if affected == 1 {
		return m, false, nil
	}

	var existing domain.Project
	err = r.tx.NewSelect().
		Model(&existing).
		Where("id = ?", m.ID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Project{}, false, err
	}
	if !sameProjectRequest(existing, project) {
		return domain.Project{}, false, store.ErrIdempotencyConflict
	}
	return existing, true, nil
}

func sameProjectRequest(a, b domain.Project) bool {
	return a.OwnerID == b.OwnerID &&
		a.Title == b.Title &&
		a.ServiceDurationMinutes == b.ServiceDurationMinutes &&
		a.Sittings == b.Sittings &&
		a.Frequency == b.Frequency &&
		a.StartDate.Equal(b.StartDate) &&
		a.PricePerSittingCents == b.PricePerSittingCents
}

func (r calendarTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == noOverlapConstraint {
			return domain.Appointment{}, store.ErrConflict
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r calendarTx) ListProjectAppointments(ctx context.Context, ownerID string, project domain.Project) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.tx.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Where("project_id = ?", project.ID).
		OrderExpr("sitting ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
