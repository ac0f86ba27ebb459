package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"atelier/backend/internal/availability"
	"atelier/backend/internal/domain"
	"atelier/backend/internal/service/projects"
	"atelier/backend/internal/store"
)

const errorDomain = "atelier.v1"

// ErrorInfo reasons attached to failed calls.
const (
	ReasonInvalidArgument          = "INVALID_ARGUMENT"
	ReasonDurationExceedsCapacity  = "DURATION_EXCEEDS_CAPACITY"
	ReasonScheduleNotConfigured    = "SCHEDULE_NOT_CONFIGURED"
	ReasonRequestedDateUnavailable = "REQUESTED_DATE_UNAVAILABLE"
	ReasonNoSlotFound              = "NO_SLOT_FOUND"
	ReasonBookingConflict          = "BOOKING_CONFLICT"
	ReasonIdempotencyConflict      = "IDEMPOTENCY_CONFLICT"
)

type ProjectsServer struct {
	svc projectsService
	log *slog.Logger
}

type projectsService interface {
	Plan(ctx context.Context, in projects.PlanInput) (projects.Plan, error)
	Book(ctx context.Context, in projects.BookInput) (projects.Booking, error)
}

func NewProjectsServer(svc projectsService, log *slog.Logger) *ProjectsServer {
	if log == nil {
		log = slog.Default()
	}
	return &ProjectsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.projects")),
	}
}

// PlanProject reads owner_id, service_duration_minutes, sittings, frequency, start_date (RFC 3339)
// and price_per_sitting_cents, and answers with the proposed sittings without booking them.
func (s *ProjectsServer) PlanProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "PlanProject"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, statusError(codes.InvalidArgument, ReasonInvalidArgument, "request is required")
	}
	in, err := parsePlanInput(req.GetFields())
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, statusError(codes.InvalidArgument, ReasonInvalidArgument, err.Error())
	}

	plan, err := s.svc.Plan(ctx, in)
	if err != nil {
		return nil, s.mapError(log, err, in.OwnerID)
	}

	log.Debug("project planned", slog.String("owner_id", plan.OwnerID), slog.Int("sittings", len(plan.Slots)))

	sittings := make([]any, 0, len(plan.Slots))
	for _, slot := range plan.Slots {
		sittings = append(sittings, map[string]any{
			"sitting": slot.Sitting,
			"start":   formatTime(slot.Start),
			"end":     formatTime(slot.End),
		})
	}
	return newResponse(log, map[string]any{
		"owner_id":         plan.OwnerID,
		"frequency":        string(plan.Frequency),
		"time_zone":        plan.Location.String(),
		"total_cost_cents": plan.TotalCostCents,
		"sittings":         sittings,
	})
}

// BookProject takes the PlanProject fields plus title, and stores the project and its sittings.
// An idempotency key may be sent in metadata.
func (s *ProjectsServer) BookProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "BookProject"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, statusError(codes.InvalidArgument, ReasonInvalidArgument, "request is required")
	}
	f := fields(req.GetFields())
	planIn, err := parsePlanInput(f)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, statusError(codes.InvalidArgument, ReasonInvalidArgument, err.Error())
	}
	title, err := f.str("title")
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, statusError(codes.InvalidArgument, ReasonInvalidArgument, err.Error())
	}

	booking, err := s.svc.Book(ctx, projects.BookInput{
		PlanInput:      planIn,
		Title:          title,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.mapError(log, err, planIn.OwnerID)
	}

	log.Info(
		"project booked",
		slog.String("project_id", booking.Project.ID.String()),
		slog.String("owner_id", booking.Project.OwnerID),
		slog.Int("sittings", len(booking.Appointments)),
		slog.Bool("replayed", booking.Replayed),
	)

	appts := make([]any, 0, len(booking.Appointments))
	for _, a := range booking.Appointments {
		appts = append(appts, appointmentFields(a))
	}
	return newResponse(log, map[string]any{
		"project":      projectFields(booking.Project),
		"appointments": appts,
		"replayed":     booking.Replayed,
	})
}

func (s *ProjectsServer) mapError(log *slog.Logger, err error, ownerID string) error {
	var vErr *projects.ValidationError
	var sErr *availability.SittingError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err), slog.String("owner_id", ownerID))
		return statusError(codes.InvalidArgument, ReasonInvalidArgument, vErr.Error())
	case errors.Is(err, availability.ErrInvalidInput):
		log.Warn("invalid request", slog.Any("err", err), slog.String("owner_id", ownerID))
		return statusError(codes.InvalidArgument, ReasonInvalidArgument, err.Error())
	case errors.Is(err, availability.ErrDurationExceedsCapacity):
		log.Info("duration exceeds capacity", slog.Any("err", err), slog.String("owner_id", ownerID))
		return statusError(codes.InvalidArgument, ReasonDurationExceedsCapacity, "This service is longer than any working day. Shorten it or extend your hours.")
	case errors.Is(err, availability.ErrConfigurationInvalid):
		log.Info("schedule not configured", slog.Any("err", err), slog.String("owner_id", ownerID))
		return statusError(codes.FailedPrecondition, ReasonScheduleNotConfigured, "No working hours are set up yet. Configure your schedule first.")
	case errors.Is(err, availability.ErrRequestedDateUnavailable):
		log.Info("requested date unavailable", slog.String("owner_id", ownerID))
		return statusError(codes.FailedPrecondition, ReasonRequestedDateUnavailable, "The requested date has no room for the first sitting. Pick another date.")
	case errors.As(err, &sErr):
		log.Info("no slot found", slog.Int("sitting", sErr.Sitting), slog.String("owner_id", ownerID))
		return statusError(codes.ResourceExhausted, ReasonNoSlotFound, sErr.Error())
	case errors.Is(err, availability.ErrNoSlotFound):
		log.Info("no slot found", slog.String("owner_id", ownerID))
		return statusError(codes.ResourceExhausted, ReasonNoSlotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		log.Info("booking conflict", slog.String("owner_id", ownerID))
		return statusError(codes.Aborted, ReasonBookingConflict, "Another booking took one of these times. Plan again and retry.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("booking idempotency conflict", slog.String("owner_id", ownerID))
		return statusError(codes.FailedPrecondition, ReasonIdempotencyConflict, "This request key was already used for a different booking. Try again.")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", slog.String("owner_id", ownerID))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		log.Error("request failed", slog.Any("err", err), slog.String("owner_id", ownerID))
		return status.Error(codes.Internal, "internal error")
	}
}

func statusError(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ErrorReason returns the ErrorInfo reason carried by err, or "".
func ErrorReason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

type fields map[string]*structpb.Value

func (f fields) str(name string) (string, error) {
	v, ok := f[name]
	if !ok || isNull(v) {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return sv.StringValue, nil
}

func (f fields) integer(name string) (int64, error) {
	v, ok := f[name]
	if !ok || isNull(v) {
		return 0, nil
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	n := nv.NumberValue
	if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return int64(n), nil
}

func (f fields) timestamp(name string) (time.Time, error) {
	s, err := f.str(name)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

func isNull(v *structpb.Value) bool {
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return v == nil || null
}

func parsePlanInput(f fields) (projects.PlanInput, error) {
	owner, err := f.str("owner_id")
	if err != nil {
		return projects.PlanInput{}, err
	}
	minutes, err := f.integer("service_duration_minutes")
	if err != nil {
		return projects.PlanInput{}, err
	}
	sittings, err := f.integer("sittings")
	if err != nil {
		return projects.PlanInput{}, err
	}
	frequency, err := f.str("frequency")
	if err != nil {
		return projects.PlanInput{}, err
	}
	start, err := f.timestamp("start_date")
	if err != nil {
		return projects.PlanInput{}, err
	}
	price, err := f.integer("price_per_sitting_cents")
	if err != nil {
		return projects.PlanInput{}, err
	}
	return projects.PlanInput{
		OwnerID:                owner,
		ServiceDurationMinutes: int(minutes),
		Sittings:               int(sittings),
		Frequency:              frequency,
		StartDate:              start,
		PricePerSittingCents:   price,
	}, nil
}

func newResponse(log *slog.Logger, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		log.Error("response encode failed", slog.Any("err", err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func projectFields(p domain.Project) map[string]any {
	return map[string]any{
		"id":                       p.ID.String(),
		"owner_id":                 p.OwnerID,
		"title":                    p.Title,
		"service_duration_minutes": p.ServiceDurationMinutes,
		"sittings":                 p.Sittings,
		"frequency":                p.Frequency,
		"start_date":               formatTime(p.StartDate),
		"price_per_sitting_cents":  p.PricePerSittingCents,
		"total_cost_cents":         p.TotalCostCents,
	}
}

func appointmentFields(a domain.Appointment) map[string]any {
	return map[string]any{
		"id":      a.ID.String(),
		"sitting": a.Sitting,
		"title":   a.Title,
		"start":   formatTime(a.StartTime),
		"end":     formatTime(a.EndTime),
	}
}
