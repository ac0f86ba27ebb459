package availability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDailyMinutes(t *testing.T) {
	tests := []struct {
		name     string
		schedule []WorkDay
		want     int
	}{
		{name: "empty", schedule: nil, want: 0},
		{
			name: "longest enabled day",
			schedule: []WorkDay{
				{Day: "Monday", Enabled: true, Start: "09:00", End: "17:00"},
				{Day: "Tuesday", Enabled: true, Start: "08:00", End: "18:30"},
				{Day: "Wednesday", Enabled: false, Start: "00:00", End: "23:59"},
			},
			want: 630,
		},
		{
			name:     "overnight window",
			schedule: []WorkDay{{Day: "Friday", Enabled: true, Start: "22:00", End: "02:00"}},
			want:     240,
		},
		{
			name:     "twelve hour clock",
			schedule: []WorkDay{{Day: "Friday", Enabled: true, Start: "9:00 AM", End: "5:30 PM"}},
			want:     510,
		},
		{
			name:     "unparseable times ignored",
			schedule: []WorkDay{{Day: "Monday", Enabled: true, Start: "nine", End: "17:00"}},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxDailyMinutes(tt.schedule))
		})
	}
}

func TestCheckRequest(t *testing.T) {
	weekdays := []WorkDay{{Day: "Monday", Enabled: true, Start: "09:00", End: "17:00"}}

	t.Run("fits", func(t *testing.T) {
		require.NoError(t, CheckRequest(weekdays, 480))
	})

	t.Run("exceeds longest day", func(t *testing.T) {
		err := CheckRequest(weekdays, 600)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDurationExceedsCapacity))
		assert.Contains(t, err.Error(), "480")
	})

	t.Run("no usable day", func(t *testing.T) {
		err := CheckRequest([]WorkDay{{Day: "Monday", Enabled: false, Start: "09:00", End: "17:00"}}, 30)
		assert.ErrorIs(t, err, ErrConfigurationInvalid)

		err = CheckRequest(nil, 30)
		assert.ErrorIs(t, err, ErrConfigurationInvalid)
	})
}
