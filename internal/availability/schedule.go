package availability

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const minutesPerDay = 24 * 60

// WorkDay is one weekday's opening window. End before Start means the window closes on the
// following calendar day.
type WorkDay struct {
	Day     string `json:"day"`
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday resolves the day name case-insensitively against English weekday names.
func (d WorkDay) Weekday() (time.Weekday, bool) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(d.Day))]
	return wd, ok
}

// window returns the opening and closing offsets from midnight in minutes.
func (d WorkDay) window() (open, closing int, ok bool) {
	if !d.Enabled {
		return 0, 0, false
	}
	start, ok := ParseTimeOfDay(d.Start)
	if !ok {
		return 0, 0, false
	}
	end, ok := ParseTimeOfDay(d.End)
	if !ok {
		return 0, 0, false
	}

	open = start.Minutes()
	closing = end.Minutes()
	if closing < open {
		closing += minutesPerDay
	}
	return open, closing, true
}

type keyedWorkDay struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// NormalizeSchedule decodes a stored work schedule. Both the keyed form
// ({"monday": {...}}) and the list form ([{"day": "Monday", ...}]) are accepted; anything
// else decodes to an empty schedule.
func NormalizeSchedule(raw []byte) []WorkDay {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []WorkDay{}
	}

	switch trimmed[0] {
	case '{':
		return normalizeKeyed(trimmed)
	case '[':
		var days []WorkDay
		if err := json.Unmarshal(trimmed, &days); err != nil || days == nil {
			return []WorkDay{}
		}
		return days
	default:
		return []WorkDay{}
	}
}

func normalizeKeyed(raw []byte) []WorkDay {
	var keyed map[string]keyedWorkDay
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return []WorkDay{}
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := weekOrder(keys[i]), weekOrder(keys[j])
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})

	out := make([]WorkDay, 0, len(keys))
	for _, k := range keys {
		v := keyed[k]
		out = append(out, WorkDay{
			Day:     capitalize(strings.TrimSpace(k)),
			Enabled: v.Enabled,
			Start:   v.Start,
			End:     v.End,
		})
	}
	return out
}

// weekOrder sorts Monday first; unrecognized names go last.
func weekOrder(name string) int {
	wd, ok := WorkDay{Day: name}.Weekday()
	if !ok {
		return 7
	}
	return (int(wd) + 6) % 7
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
