package availability

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationInvalid     = errors.New("work schedule has no usable days")
	ErrDurationExceedsCapacity  = errors.New("service duration exceeds longest work day")
	ErrNoSlotFound              = errors.New("no available slot found")
	ErrRequestedDateUnavailable = errors.New("requested start date unavailable; pick a new date")
	ErrInvalidInput             = errors.New("invalid project input")
)

// SittingError reports the sitting that could not be placed within the search horizon.
// It matches ErrNoSlotFound with errors.Is.
type SittingError struct {
	Sitting int
}

func (e *SittingError) Error() string {
	return fmt.Sprintf("could not find slot for sitting %d within one year", e.Sitting)
}

func (e *SittingError) Unwrap() error {
	return ErrNoSlotFound
}
