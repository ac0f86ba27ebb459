package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var timeOfDayPattern = regexp.MustCompile(`(?i)^(\d{1,2})\s*:\s*(\d{2})\s*(am|pm)?$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay accepts "H:MM" and "HH:MM" in 24-hour form, or with an AM/PM suffix.
// It reports false for anything it cannot read instead of returning an error.
func ParseTimeOfDay(text string) (TimeOfDay, bool) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return TimeOfDay{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return TimeOfDay{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return TimeOfDay{}, false
	}

	switch strings.ToUpper(m[3]) {
	case "":
		if hour > 23 {
			return TimeOfDay{}, false
		}
	case "AM":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, false
		}
		if hour != 12 {
			hour += 12
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, true
}
