package parser

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInterval(t *testing.T) {
	valid := map[string]string{
		"08:05:00":        "08:05:00",
		"":                "",
		"1 day 01:30:00":  "25:30:00",
		"2 days 00:00:05": "48:00:05",
		"1 day":           "24:00:00",
		"25:00:00":        "25:00:00",
		"0 days 07:00:00": "07:00:00",
	}
	for s, expected := range valid {
		value, err := _NormalizeInterval(s)
		require.NoError(t, err, s)
		assert.Equal(t, expected, value, s)
	}
	for _, s := range []string{"x days 01:00:00", "1 day 01:61:00"} {
		_, err := _NormalizeInterval(s)
		assert.ErrorIs(t, err, ErrInvalidTimetable, s)
	}
}

func TestPostgresRowMapping(t *testing.T) {
	builder := _NewTimetableBuilder()
	require.NoError(t, builder.AddStop("A", "A", Some(50.0), Some(8.0)))
	require.NoError(t, builder.AddStop("B", "B", _NullFloat(sql.NullFloat64{}), _NullFloat(sql.NullFloat64{Float64: 8, Valid: true})))
	require.NoError(t, builder.AddRoute("R", "", "Night"))

	// boolean, integer and enum weekday columns
	days := [7]string{"true", "1", "available", "false", "0", "not_available", "t"}
	require.NoError(t, _AddCalendarRow(builder, "S", days, "2024-01-01", "2024-01-31"))
	require.NoError(t, _AddCalendarDateRow(builder, "S", "2024-01-02", "removed"))
	require.NoError(t, _AddCalendarDateRow(builder, "S", "2024-01-05", "1"))
	assert.ErrorIs(t, _AddCalendarDateRow(builder, "S", "2024-01-06", "3"), ErrInvalidTimetable)
	assert.ErrorIs(t, _AddCalendarRow(builder, "X", days, "2024-01-01", "January"), ErrInvalidTimetable)

	require.NoError(t, builder.AddTrip("T", "R", "S"))
	require.NoError(t, _AddStopTimeRow(builder, "T", "B", 2, "1 day 00:10:00", ""))
	require.NoError(t, _AddStopTimeRow(builder, "T", "A", 1, "", "23:55:00"))
	assert.ErrorIs(t, _AddStopTimeRow(builder, "T", "A", 3, "", ""), ErrInvalidTimetable)
	assert.ErrorIs(t, _AddStopTimeRow(builder, "T", "A", 3, "1 day 8", ""), ErrInvalidTimetable)

	tt, err := builder.Finish()
	require.NoError(t, err)
	assert.False(t, tt.Stops[1].Loc.HasValue())
	assert.Equal(t, "Night", tt.Routes[0].ShortName)

	pattern := tt.Calendars[0].Pattern
	assert.Equal(t, [7]bool{true, true, true, false, false, false, true}, pattern.Weekdays)
	assert.Equal(t, structs.NewDate(2024, time.February, 1), pattern.End)
	// tuesday excluded, friday added
	assert.False(t, pattern.IsActive(structs.NewDate(2024, time.January, 2)))
	assert.True(t, pattern.IsActive(structs.NewDate(2024, time.January, 5)))
	assert.True(t, pattern.IsActive(structs.NewDate(2024, time.January, 3)))

	require.Equal(t, 1, tt.Trips.Length())
	assert.Equal(t, List[StopTime]{
		{Stop: 0, Sequence: 1, Arrival: 23*3600 + 3300, Departure: 23*3600 + 3300},
		{Stop: 1, Sequence: 2, Arrival: 24*3600 + 600, Departure: 24*3600 + 600},
	}, tt.Trips[0].StopTimes)
}
