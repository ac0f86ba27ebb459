package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atelier/backend/internal/availability"
	"atelier/backend/internal/domain"
	"atelier/backend/internal/store"
)

const (
	maxServiceDurationMinutes = 24 * 60
	maxSittings               = 52
	maxIdempotencyKeyLength   = 256
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Options struct {
	// DefaultLocation is used when a stored schedule carries no time zone. Defaults to UTC.
	DefaultLocation *time.Location
	Now             func() time.Time
	Logger          *slog.Logger
	Tracer          trace.Tracer
}

type Service struct {
	schedules    store.ScheduleRepository
	appointments store.AppointmentRepository
	engine       *availability.Engine
	now          func() time.Time
	defaultLoc   *time.Location
	log          *slog.Logger
	tracer       trace.Tracer
}

func NewService(schedules store.ScheduleRepository, appointments store.AppointmentRepository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("atelier/projects")
	}
	return &Service{
		schedules:    schedules,
		appointments: appointments,
		engine:       availability.New(availability.WithClock(opts.Now)),
		now:          opts.Now,
		defaultLoc:   opts.DefaultLocation,
		log:          opts.Logger.With(slog.String("component", "service.projects")),
		tracer:       opts.Tracer,
	}
}

type PlanInput struct {
	OwnerID                string
	ServiceDurationMinutes int
	Sittings               int
	Frequency              string
	StartDate              time.Time
	PricePerSittingCents   int64
}

type BookInput struct {
	PlanInput
	Title          string
	IdempotencyKey string
}

type Slot struct {
	Sitting int
	Start   time.Time
	End     time.Time
}

type Plan struct {
	OwnerID        string
	Frequency      availability.Frequency
	Location       *time.Location
	Slots          []Slot
	TotalCostCents int64
}

type Booking struct {
	Project      domain.Project
	Appointments []domain.Appointment
	// Replayed is set when the idempotency key matched an earlier identical booking.
	Replayed bool
}

// request is a validated plan input resolved against the owner's schedule.
type request struct {
	ownerID   string
	minutes   int
	duration  time.Duration
	sittings  int
	frequency availability.Frequency
	start     time.Time
	schedule  []availability.WorkDay
	price     int64
}

func (r request) totalCost() int64 {
	return r.price * int64(r.sittings)
}

// searchFrom is the earliest instant a booked appointment can matter from.
func (r request) searchFrom(now time.Time) time.Time {
	if r.start.Before(now) {
		return now
	}
	return r.start
}

func validatePlan(in PlanInput) (availability.Frequency, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return "", validationError("owner_id is required")
	}
	if in.ServiceDurationMinutes < 1 {
		return "", validationError("service_duration_minutes must be at least 1")
	}
	if in.ServiceDurationMinutes > maxServiceDurationMinutes {
		return "", validationError("service_duration_minutes must be at most 1440")
	}
	if in.Sittings < 1 {
		return "", validationError("sittings must be at least 1")
	}
	if in.Sittings > maxSittings {
		return "", validationError("sittings must be at most 52")
	}
	freq, err := availability.ParseFrequency(in.Frequency)
	if err != nil {
		return "", validationError("frequency must be one of consecutive, weekly, biweekly, monthly")
	}
	if in.StartDate.IsZero() {
		return "", validationError("start_date is required")
	}
	if in.PricePerSittingCents < 0 {
		return "", validationError("price_per_sitting_cents must not be negative")
	}
	return freq, nil
}

// prepare validates the input and loads the owner's schedule. A schedule with no usable day or
// a duration longer than every working day is rejected here, before any booking is read.
func (s *Service) prepare(ctx context.Context, in PlanInput) (request, error) {
	freq, err := validatePlan(in)
	if err != nil {
		return request{}, err
	}
	ownerID := strings.TrimSpace(in.OwnerID)

	stored, err := s.schedules.LoadWorkSchedule(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return request{}, fmt.Errorf("%w: no work schedule saved", availability.ErrConfigurationInvalid)
	}
	if err != nil {
		return request{}, fmt.Errorf("load work schedule: %w", err)
	}

	schedule := stored.WorkDays()
	if err := availability.CheckRequest(schedule, in.ServiceDurationMinutes); err != nil {
		return request{}, err
	}

	loc := s.defaultLoc
	if tz := strings.TrimSpace(stored.TimeZone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return request{}, fmt.Errorf("%w: unknown time zone %q", availability.ErrConfigurationInvalid, tz)
		}
		loc = l
	}

	return request{
		ownerID:   ownerID,
		minutes:   in.ServiceDurationMinutes,
		duration:  time.Duration(in.ServiceDurationMinutes) * time.Minute,
		sittings:  in.Sittings,
		frequency: freq,
		start:     in.StartDate.In(loc),
		schedule:  schedule,
		price:     in.PricePerSittingCents,
	}, nil
}

func (s *Service) place(req request, booked []domain.Appointment) ([]Slot, error) {
	starts, err := s.engine.CalculateProjectDates(availability.ProjectInput{
		ServiceDuration:      req.duration,
		Sittings:             req.sittings,
		Frequency:            req.frequency,
		StartDate:            req.start,
		WorkSchedule:         req.schedule,
		ExistingAppointments: domain.Intervals(booked),
	})
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(starts))
	for i, start := range starts {
		slots = append(slots, Slot{Sitting: i + 1, Start: start, End: start.Add(req.duration)})
	}
	return slots, nil
}

// Plan computes the dates of every sitting without writing anything.
func (s *Service) Plan(ctx context.Context, in PlanInput) (Plan, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Plan", trace.WithAttributes(
		attribute.String("owner_id", in.OwnerID),
		attribute.Int("sittings", in.Sittings),
		attribute.String("frequency", in.Frequency),
	))
	defer span.End()

	plan, err := s.plan(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) plan(ctx context.Context, in PlanInput) (Plan, error) {
	req, err := s.prepare(ctx, in)
	if err != nil {
		return Plan{}, err
	}

	from := req.searchFrom(s.now())
	booked, err := s.appointments.ListBooked(ctx, req.ownerID, &from)
	if err != nil {
		return Plan{}, fmt.Errorf("list booked appointments: %w", err)
	}

	slots, err := s.place(req, booked)
	if err != nil {
		return Plan{}, err
	}

	s.log.Debug(
		"project planned",
		slog.String("owner_id", req.ownerID),
		slog.Int("sittings", len(slots)),
		slog.Time("first_start", slots[0].Start),
	)

	return Plan{
		OwnerID:        req.ownerID,
		Frequency:      req.frequency,
		Location:       req.start.Location(),
		Slots:          slots,
		TotalCostCents: req.totalCost(),
	}, nil
}

// Book plans and stores a project and its sittings. The owner's calendar is locked while the
// existing bookings are read and the new ones written, so concurrent bookings cannot interleave.
func (s *Service) Book(ctx context.Context, in BookInput) (Booking, error) {
	ctx, span := s.tracer.Start(ctx, "projects.Book", trace.WithAttributes(
		attribute.String("owner_id", in.OwnerID),
		attribute.Int("sittings", in.Sittings),
		attribute.String("frequency", in.Frequency),
	))
	defer span.End()

	booking, err := s.book(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Booking{}, err
	}
	span.SetAttributes(
		attribute.String("project_id", booking.Project.ID.String()),
		attribute.Bool("replayed", booking.Replayed),
	)
	return booking, nil
}

func (s *Service) book(ctx context.Context, in BookInput) (Booking, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Booking{}, validationError("title is required")
	}

	var projectID uuid.UUID
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > maxIdempotencyKeyLength {
			return Booking{}, validationError("idempotency_key too long")
		}
		projectID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("atelier:book_project:"+strings.TrimSpace(in.OwnerID)+":"+key))
	}

	req, err := s.prepare(ctx, in.PlanInput)
	if err != nil {
		return Booking{}, err
	}

	var booking Booking
	err = s.appointments.InOwnerTransaction(ctx, req.ownerID, func(ctx context.Context, tx store.CalendarTx) error {
		project, replayed, err := tx.CreateProject(ctx, domain.Project{
			ID:                     projectID,
			OwnerID:                req.ownerID,
			Title:                  title,
			ServiceDurationMinutes: req.minutes,
			Sittings:               req.sittings,
			Frequency:              string(req.frequency),
			StartDate:              req.start.UTC(),
			PricePerSittingCents:   req.price,
			TotalCostCents:         req.totalCost(),
		})
		if err != nil {
			return err
		}
		if replayed {
			appts, err := tx.ListProjectAppointments(ctx, req.ownerID, project)
			if err != nil {
				return err
			}
			booking = Booking{Project: project, Appointments: appts, Replayed: true}
			return nil
		}

		from := req.searchFrom(s.now())
		booked, err := tx.ListBooked(ctx, req.ownerID, &from)
		if err != nil {
			return fmt.Errorf("list booked appointments: %w", err)
		}

		slots, err := s.place(req, booked)
		if err != nil {
			return err
		}

		appts := make([]domain.Appointment, 0, len(slots))
		for _, slot := range slots {
			pid := project.ID
			appt, err := tx.CreateAppointment(ctx, domain.Appointment{
				OwnerID:   req.ownerID,
				ProjectID: &pid,
				Sitting:   slot.Sitting,
				Title:     title,
				StartTime: slot.Start.UTC(),
				EndTime:   slot.End.UTC(),
			})
			if err != nil {
				return err
			}
			appts = append(appts, appt)
		}
		booking = Booking{Project: project, Appointments: appts}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	s.log.Info(
		"project booked",
		slog.String("project_id", booking.Project.ID.String()),
		slog.String("owner_id", req.ownerID),
		slog.Int("sittings", len(booking.Appointments)),
		slog.Bool("replayed", booking.Replayed),
	)
	return booking, nil
}
