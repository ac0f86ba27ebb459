package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"atelier/backend/internal/availability"
)

type planFlags struct {
	schedulePath string
	bookedPath   string
	duration     int
	sittings     int
	frequency    string
	start        string
	tz           string
	now          string
}

// bookedInterval is one entry of the --booked file.
type bookedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func newPlanCmd() *cobra.Command {
	var f planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the dates of every sitting of a project",
		Long: `Compute the dates of every sitting of a project without touching any database.

The schedule file holds either the keyed form
  {"monday": {"enabled": true, "start": "09:00", "end": "17:00"}}
or a list of {"day", "enabled", "start", "end"} entries. The booked file is a
list of {"start", "end"} RFC 3339 timestamps.

Examples:
  atelier plan --schedule schedule.json --duration 90 --sittings 3 --frequency weekly --start 2026-11-02
  atelier plan --schedule schedule.json --booked booked.json --start 2026-11-02T10:00:00Z --tz Europe/Berlin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVar(&f.schedulePath, "schedule", "", "work schedule JSON file (required)")
	cmd.Flags().StringVar(&f.bookedPath, "booked", "", "JSON file of already booked intervals")
	cmd.Flags().IntVar(&f.duration, "duration", 60, "duration of one sitting in minutes")
	cmd.Flags().IntVar(&f.sittings, "sittings", 1, "number of sittings")
	cmd.Flags().StringVar(&f.frequency, "frequency", "weekly", "consecutive, weekly, biweekly or monthly")
	cmd.Flags().StringVar(&f.start, "start", "", "requested start, RFC 3339 or YYYY-MM-DD (default now)")
	cmd.Flags().StringVar(&f.tz, "tz", "Local", "IANA time zone the schedule is written in")
	cmd.Flags().StringVar(&f.now, "now", "", "override the current time (RFC 3339)")
	_ = cmd.Flags().MarkHidden("now")
	_ = cmd.MarkFlagRequired("schedule")

	return cmd
}

func runPlan(out io.Writer, f planFlags) error {
	loc, err := time.LoadLocation(f.tz)
	if err != nil {
		return fmt.Errorf("%w: unknown time zone %q", availability.ErrInvalidInput, f.tz)
	}

	raw, err := os.ReadFile(f.schedulePath)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}
	schedule := availability.NormalizeSchedule(raw)
	if err := availability.CheckRequest(schedule, f.duration); err != nil {
		return err
	}

	booked, err := readBooked(f.bookedPath)
	if err != nil {
		return err
	}

	freq, err := availability.ParseFrequency(f.frequency)
	if err != nil {
		return err
	}

	now := time.Now
	if f.now != "" {
		t, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return fmt.Errorf("%w: --now must be RFC 3339", availability.ErrInvalidInput)
		}
		now = func() time.Time { return t }
	}

	start := now().In(loc)
	if f.start != "" {
		start, err = parseStart(f.start, loc)
		if err != nil {
			return err
		}
	}

	duration := time.Duration(f.duration) * time.Minute
	engine := availability.New(availability.WithClock(now))
	dates, err := engine.CalculateProjectDates(availability.ProjectInput{
		ServiceDuration:      duration,
		Sittings:             f.sittings,
		Frequency:            freq,
		StartDate:            start,
		WorkSchedule:         schedule,
		ExistingAppointments: booked,
	})
	if err != nil {
		return err
	}

	for i, d := range dates {
		fmt.Fprintf(out, "sitting %d  %s  %s - %s\n",
			i+1,
			d.Format("Mon 2006-01-02"),
			d.Format("15:04"),
			d.Add(duration).Format("15:04 MST"),
		)
	}
	return nil
}

func parseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: --start must be RFC 3339 or YYYY-MM-DD", availability.ErrInvalidInput)
}

func readBooked(path string) ([]availability.Interval, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read booked: %w", err)
	}
	var entries []bookedInterval
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: booked file: %v", availability.ErrInvalidInput, err)
	}
	out := make([]availability.Interval, 0, len(entries))
	for _, e := range entries {
		out = append(out, availability.Interval{Start: e.Start, End: e.End})
	}
	return out, nil
}

// failureKind names the engine failure behind err for the exit message.
func failureKind(err error) string {
	switch {
	case errors.Is(err, availability.ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, availability.ErrConfigurationInvalid):
		return "schedule not configured"
	case errors.Is(err, availability.ErrDurationExceedsCapacity):
		return "duration exceeds capacity"
	case errors.Is(err, availability.ErrRequestedDateUnavailable):
		return "requested date unavailable"
	case errors.Is(err, availability.ErrNoSlotFound):
		return "no slot found"
	default:
		return "failed"
	}
}
