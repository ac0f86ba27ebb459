package availability

import "fmt"

// MaxDailyMinutes returns the longest opening window across enabled days, counting overnight
// windows across midnight. Days with unreadable times are ignored.
func MaxDailyMinutes(schedule []WorkDay) int {
	longest := 0
	for _, d := range schedule {
		open, closing, ok := d.window()
		if !ok {
			continue
		}
		if n := closing - open; n > longest {
			longest = n
		}
	}
	return longest
}

// CheckRequest rejects requests that no search could satisfy: a schedule without a single
// usable day, or a service longer than the longest day.
func CheckRequest(schedule []WorkDay, durationMinutes int) error {
	usable := 0
	for _, d := range schedule {
		if _, _, ok := d.window(); ok {
			usable++
		}
	}
	if usable == 0 {
		return ErrConfigurationInvalid
	}

	if longest := MaxDailyMinutes(schedule); durationMinutes > longest {
		return fmt.Errorf("%w: service takes %d minutes, longest work day is %d minutes", ErrDurationExceedsCapacity, durationMinutes, longest)
	}
	return nil
}
