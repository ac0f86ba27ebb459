package availability

import "time"

const (
	// SlotStep is the probing granularity inside a work day. Candidate starts are not
	// derived from gaps between bookings, so a free gap that does not begin on a step can be
	// skipped.
	SlotStep = 30 * time.Minute

	// SearchHorizonDays bounds how many calendar days a single search scans.
	SearchHorizonDays = 365
)

// Interval is a booked span, half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports strict overlap; intervals that only touch do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// Engine computes slots against an injectable clock. The zero value is not usable; call New.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the source of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type dayWindow struct {
	open    int
	closing int
	ok      bool
}

// weekWindows indexes the schedule by weekday. The first entry for a weekday wins.
func weekWindows(schedule []WorkDay) [7]dayWindow {
	var week [7]dayWindow
	var seen [7]bool
	for _, d := range schedule {
		wd, ok := d.Weekday()
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		open, closing, ok := d.window()
		week[wd] = dayWindow{open: open, closing: closing, ok: ok}
	}
	return week
}

// FindNextAvailableSlot returns the earliest start at or after from (and never before now)
// where a booking of the given duration fits inside a work day without overlapping booked.
// Days are computed in from's location. It reports false when nothing fits within
// SearchHorizonDays.
func (e *Engine) FindNextAvailableSlot(from time.Time, duration time.Duration, schedule []WorkDay, booked []Interval) (time.Time, bool) {
	if duration <= 0 {
		return time.Time{}, false
	}

	loc := from.Location()
	week := weekWindows(schedule)
	cursor := e.notBeforeNow(from)

	for i := 0; i < SearchHorizonDays; i++ {
		y, m, d := cursor.Date()
		w := week[cursor.Weekday()]
		if !w.ok {
			cursor = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
			continue
		}

		dayStart := time.Date(y, m, d, 0, w.open, 0, 0, loc)
		dayEnd := time.Date(y, m, d, 0, w.closing, 0, 0, loc)
		if cursor.Before(dayStart) {
			cursor = dayStart
		}

		for !cursor.Add(duration).After(dayEnd) {
			if !overlapsAny(Interval{Start: cursor, End: cursor.Add(duration)}, booked) {
				return cursor, true
			}
			cursor = cursor.Add(SlotStep)
		}

		cursor = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}

	return time.Time{}, false
}

// notBeforeNow moves a past instant to now rounded up to the next SlotStep boundary.
// The result is in from's location.
func (e *Engine) notBeforeNow(from time.Time) time.Time {
	now := e.now().In(from.Location())
	if !from.Before(now) {
		return from
	}
	return ceilToStep(now)
}

func ceilToStep(t time.Time) time.Time {
	step := int(SlotStep / time.Minute)
	mins := t.Hour()*60 + t.Minute()
	if mins%step != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		mins = (mins/step + 1) * step
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, mins, 0, 0, t.Location())
}
