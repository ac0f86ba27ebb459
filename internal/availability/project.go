package availability

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the spacing between consecutive sittings.
type Frequency string

const (
	FrequencyConsecutive Frequency = "consecutive"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiweekly    Frequency = "biweekly"
	FrequencyMonthly     Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: unsupported frequency %q", ErrInvalidInput, s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyConsecutive, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Next returns midnight of the day the following sitting may start on. Monthly spacing uses
// AddDate, so the 31st of a month followed by a 30-day month lands on the 1st.
func (f Frequency) Next(t time.Time) time.Time {
	var next time.Time
	switch f {
	case FrequencyWeekly:
		next = t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		next = t.AddDate(0, 0, 14)
	case FrequencyMonthly:
		next = t.AddDate(0, 1, 0)
	default:
		next = t.AddDate(0, 0, 1)
	}
	y, m, d := next.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, next.Location())
}

// ProjectInput describes one multi-sitting request. ExistingAppointments must already be
// scoped to the calendar owner; it is never modified.
type ProjectInput struct {
	ServiceDuration      time.Duration
	Sittings             int
	Frequency            Frequency
	StartDate            time.Time
	WorkSchedule         []WorkDay
	ExistingAppointments []Interval
}

// CalculateProjectDates places every sitting of a project, in order. Either all sittings are
// placed or an error is returned: a *SittingError (ErrNoSlotFound) when a sitting does not fit
// within the horizon, or ErrRequestedDateUnavailable when a future start date has no room on
// that calendar day.
func (e *Engine) CalculateProjectDates(in ProjectInput) ([]time.Time, error) {
	if in.ServiceDuration <= 0 {
		return nil, fmt.Errorf("%w: service duration must be positive", ErrInvalidInput)
	}
	if in.Sittings < 1 {
		return nil, fmt.Errorf("%w: at least one sitting is required", ErrInvalidInput)
	}
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unsupported frequency %q", ErrInvalidInput, in.Frequency)
	}

	requestedInFuture := !in.StartDate.Before(e.now())
	cursor := e.notBeforeNow(in.StartDate)

	booked := make([]Interval, len(in.ExistingAppointments), len(in.ExistingAppointments)+in.Sittings)
	copy(booked, in.ExistingAppointments)

	out := make([]time.Time, 0, in.Sittings)
	for i := 0; i < in.Sittings; i++ {
		slot, ok := e.FindNextAvailableSlot(cursor, in.ServiceDuration, in.WorkSchedule, booked)
		if !ok {
			return nil, &SittingError{Sitting: i + 1}
		}

		if i == 0 && requestedInFuture && !sameDate(slot, in.StartDate) {
			return nil, fmt.Errorf("%w: nothing free on %s", ErrRequestedDateUnavailable, in.StartDate.Format(time.DateOnly))
		}

		booked = append(booked, Interval{Start: slot, End: slot.Add(in.ServiceDuration)})
		out = append(out, slot)
		cursor = in.Frequency.Next(slot)
	}

	return out, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
