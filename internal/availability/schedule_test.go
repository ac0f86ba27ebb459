package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSchedule_KeyedForm(t *testing.T) {
	raw := []byte(`{
		"sunday":    {"enabled": false, "start": "", "end": ""},
		"wednesday": {"enabled": true, "start": "10:00", "end": "18:00"},
		"monday":    {"enabled": true, "start": "09:00", "end": "17:00"},
		"holiday":   {"enabled": true, "start": "09:00", "end": "10:00"}
	}`)

	days := NormalizeSchedule(raw)

	require.Len(t, days, 4)
	assert.Equal(t, WorkDay{Day: "Monday", Enabled: true, Start: "09:00", End: "17:00"}, days[0])
	assert.Equal(t, "Wednesday", days[1].Day)
	assert.Equal(t, "Sunday", days[2].Day)
	assert.False(t, days[2].Enabled)
	assert.Equal(t, "Holiday", days[3].Day)
}

func TestNormalizeSchedule_ListFormPassesThrough(t *testing.T) {
	raw := []byte(`[
		{"day": "friday", "enabled": true, "start": "22:00", "end": "02:00"},
		{"day": "Monday", "enabled": false}
	]`)

	days := NormalizeSchedule(raw)

	require.Len(t, days, 2)
	assert.Equal(t, WorkDay{Day: "friday", Enabled: true, Start: "22:00", End: "02:00"}, days[0])
	assert.Equal(t, WorkDay{Day: "Monday"}, days[1])
}

func TestNormalizeSchedule_UnrecognizedShapesAreEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "null", `"monday"`, "42", "{not json", `{"monday": true}`, "[1, 2]"} {
		t.Run(raw, func(t *testing.T) {
			days := NormalizeSchedule([]byte(raw))
			require.NotNil(t, days)
			assert.Empty(t, days)
		})
	}
}

func TestWorkDay_Weekday(t *testing.T) {
	wd, ok := WorkDay{Day: " TUESDAY "}.Weekday()
	require.True(t, ok)
	assert.Equal(t, time.Tuesday, wd)

	_, ok = WorkDay{Day: "Dienstag"}.Weekday()
	assert.False(t, ok)
}
