package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"atelier/backend/internal/availability"
	"atelier/backend/internal/domain"
	"atelier/backend/internal/service/projects"
	"atelier/backend/internal/store"
)

type fakeProjectsService struct {
	planFn func(ctx context.Context, in projects.PlanInput) (projects.Plan, error)
	bookFn func(ctx context.Context, in projects.BookInput) (projects.Booking, error)
}

func (f *fakeProjectsService) Plan(ctx context.Context, in projects.PlanInput) (projects.Plan, error) {
	if f.planFn == nil {
		panic("Plan not configured")
	}
	return f.planFn(ctx, in)
}

func (f *fakeProjectsService) Book(ctx context.Context, in projects.BookInput) (projects.Booking, error) {
	if f.bookFn == nil {
		panic("Book not configured")
	}
	return f.bookFn(ctx, in)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct error: %v", err)
	}
	return s
}

func planRequest(t *testing.T) *structpb.Struct {
	t.Helper()
	return mustStruct(t, map[string]any{
		"owner_id":                 "artist-1",
		"service_duration_minutes": 90,
		"sittings":                 2,
		"frequency":                "weekly",
		"start_date":               "2026-01-05T09:00:00+01:00",
		"price_per_sitting_cents":  12000,
	})
}

func TestIdempotencyKey_ReadsHeadersAndTrims(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "  abc  "))
	if got := idempotencyKey(ctx); got != "abc" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "abc")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-idempotency-key", "xyz"))
	if got := idempotencyKey(ctx); got != "xyz" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "xyz")
	}
}

func TestPlanProject_ParsesRequestAndEncodesSittings(t *testing.T) {
	var got projects.PlanInput
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	srv := NewProjectsServer(&fakeProjectsService{
		planFn: func(ctx context.Context, in projects.PlanInput) (projects.Plan, error) {
			got = in
			return projects.Plan{
				OwnerID:   in.OwnerID,
				Frequency: availability.FrequencyWeekly,
				Location:  time.UTC,
				Slots: []projects.Slot{
					{Sitting: 1, Start: start, End: start.Add(90 * time.Minute)},
					{Sitting: 2, Start: start.AddDate(0, 0, 7), End: start.AddDate(0, 0, 7).Add(90 * time.Minute)},
				},
				TotalCostCents: 24000,
			}, nil
		},
	}, slog.Default())

	resp, err := srv.PlanProject(context.Background(), planRequest(t))
	if err != nil {
		t.Fatalf("PlanProject error: %v", err)
	}

	if got.OwnerID != "artist-1" || got.ServiceDurationMinutes != 90 || got.Sittings != 2 || got.Frequency != "weekly" || got.PricePerSittingCents != 12000 {
		t.Fatalf("plan input = %+v", got)
	}
	if !got.StartDate.Equal(start) {
		t.Fatalf("start_date = %v, want %v", got.StartDate, start)
	}

	m := resp.AsMap()
	if m["total_cost_cents"] != float64(24000) {
		t.Fatalf("total_cost_cents = %v, want 24000", m["total_cost_cents"])
	}
	sittings, ok := m["sittings"].([]any)
	if !ok || len(sittings) != 2 {
		t.Fatalf("sittings = %v, want 2 entries", m["sittings"])
	}
	first := sittings[0].(map[string]any)
	if first["start"] != "2026-01-05T08:00:00Z" || first["end"] != "2026-01-05T09:30:00Z" {
		t.Fatalf("first sitting = %v", first)
	}
}

func TestPlanProject_RejectsMalformedFields(t *testing.T) {
	srv := NewProjectsServer(&fakeProjectsService{}, slog.Default())

	cases := map[string]map[string]any{
		"string sittings":   {"owner_id": "a", "sittings": "three"},
		"fractional":        {"owner_id": "a", "service_duration_minutes": 1.5},
		"numeric owner":     {"owner_id": 7},
		"unparseable start": {"owner_id": "a", "start_date": "next monday"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := srv.PlanProject(context.Background(), mustStruct(t, m))
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
			}
			if got := ErrorReason(err); got != ReasonInvalidArgument {
				t.Fatalf("reason = %q, want %q", got, ReasonInvalidArgument)
			}
		})
	}
}

func TestPlanProject_MapsFailureKinds(t *testing.T) {
	cases := []struct {
		err    error
		code   codes.Code
		reason string
	}{
		{&projects.ValidationError{}, codes.InvalidArgument, ReasonInvalidArgument},
		{fmt.Errorf("%w: x", availability.ErrInvalidInput), codes.InvalidArgument, ReasonInvalidArgument},
		{availability.ErrDurationExceedsCapacity, codes.InvalidArgument, ReasonDurationExceedsCapacity},
		{fmt.Errorf("%w: none", availability.ErrConfigurationInvalid), codes.FailedPrecondition, ReasonScheduleNotConfigured},
		{availability.ErrRequestedDateUnavailable, codes.FailedPrecondition, ReasonRequestedDateUnavailable},
		{&availability.SittingError{Sitting: 3}, codes.ResourceExhausted, ReasonNoSlotFound},
		{store.ErrConflict, codes.Aborted, ReasonBookingConflict},
		{store.ErrIdempotencyConflict, codes.FailedPrecondition, ReasonIdempotencyConflict},
		{errors.New("boom"), codes.Internal, ""},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			srv := NewProjectsServer(&fakeProjectsService{
				planFn: func(ctx context.Context, in projects.PlanInput) (projects.Plan, error) {
					return projects.Plan{}, tc.err
				},
			}, slog.Default())

			_, err := srv.PlanProject(context.Background(), planRequest(t))
			if status.Code(err) != tc.code {
				t.Fatalf("code = %s, want %s", status.Code(err), tc.code)
			}
			if got := ErrorReason(err); got != tc.reason {
				t.Fatalf("reason = %q, want %q", got, tc.reason)
			}
		})
	}
}

func TestPlanProject_NoSlotMessageNamesSitting(t *testing.T) {
	srv := NewProjectsServer(&fakeProjectsService{
		planFn: func(ctx context.Context, in projects.PlanInput) (projects.Plan, error) {
			return projects.Plan{}, &availability.SittingError{Sitting: 2}
		},
	}, slog.Default())

	_, err := srv.PlanProject(context.Background(), planRequest(t))
	if got := status.Convert(err).Message(); got != "could not find slot for sitting 2 within one year" {
		t.Fatalf("message = %q", got)
	}
}

func TestBookProject_PassesTitleAndIdempotencyKey(t *testing.T) {
	var got projects.BookInput
	projectID := uuid.MustParse("00000000-0000-0000-0000-000000000010")
	srv := NewProjectsServer(&fakeProjectsService{
		bookFn: func(ctx context.Context, in projects.BookInput) (projects.Booking, error) {
			got = in
			pid := projectID
			return projects.Booking{
				Project: domain.Project{ID: projectID, OwnerID: in.OwnerID, Title: in.Title, Sittings: 1},
				Appointments: []domain.Appointment{{
					ID:        uuid.MustParse("00000000-0000-0000-0000-000000000011"),
					ProjectID: &pid,
					Sitting:   1,
					Title:     in.Title,
					StartTime: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
					EndTime:   time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC),
				}},
				Replayed: true,
			}, nil
		},
	}, slog.Default())

	req := planRequest(t)
	req.Fields["title"] = structpb.NewStringValue("Back piece")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "k1"))

	resp, err := srv.BookProject(ctx, req)
	if err != nil {
		t.Fatalf("BookProject error: %v", err)
	}
	if got.Title != "Back piece" || got.IdempotencyKey != "k1" || got.OwnerID != "artist-1" {
		t.Fatalf("book input = %+v", got)
	}

	m := resp.AsMap()
	if m["replayed"] != true {
		t.Fatalf("replayed = %v, want true", m["replayed"])
	}
	project := m["project"].(map[string]any)
	if project["id"] != projectID.String() {
		t.Fatalf("project id = %v, want %s", project["id"], projectID)
	}
	appts := m["appointments"].([]any)
	if len(appts) != 1 || appts[0].(map[string]any)["start"] != "2026-01-05T09:00:00Z" {
		t.Fatalf("appointments = %v", appts)
	}
}

func TestBookProject_RejectsNonStringTitle(t *testing.T) {
	srv := NewProjectsServer(&fakeProjectsService{}, slog.Default())

	req := planRequest(t)
	req.Fields["title"] = structpb.NewBoolValue(true)
	_, err := srv.BookProject(context.Background(), req)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func dialTestServer(t *testing.T, svc projectsService, opts ...grpc.ServerOption) *ProjectsServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterProjectsServiceServer(s, NewProjectsServer(svc, slog.Default()))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewProjectsServiceClient(conn)
}

func TestProjectsService_RoundTripWithInterceptors(t *testing.T) {
	var hadDeadline bool
	client := dialTestServer(t, &fakeProjectsService{
		planFn: func(ctx context.Context, in projects.PlanInput) (projects.Plan, error) {
			_, hadDeadline = ctx.Deadline()
			return projects.Plan{OwnerID: in.OwnerID, Location: time.UTC}, nil
		},
	}, grpc.ChainUnaryInterceptor(
		DefaultRequestTimeoutInterceptor(time.Second),
		RateLimitInterceptor(0.001, 1, slog.Default()),
	))

	resp, err := client.PlanProject(context.Background(), planRequest(t))
	if err != nil {
		t.Fatalf("PlanProject error: %v", err)
	}
	if resp.AsMap()["owner_id"] != "artist-1" {
		t.Fatalf("owner_id = %v, want artist-1", resp.AsMap()["owner_id"])
	}
	if !hadDeadline {
		t.Fatalf("handler context has no deadline")
	}

	_, err = client.PlanProject(context.Background(), planRequest(t))
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("second call code = %s, want %s", status.Code(err), codes.ResourceExhausted)
	}
}

func TestDefaultRequestTimeoutInterceptor_KeepsCallerDeadline(t *testing.T) {
	interceptor := DefaultRequestTimeoutInterceptor(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	want, _ := ctx.Deadline()

	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		got, ok := ctx.Deadline()
		if !ok || !got.Equal(want) {
			t.Fatalf("deadline = %v, want %v", got, want)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
}
