package structs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateWeekday(t *testing.T) {
	// 2024-05-06 was a monday
	monday := NewDate(2024, time.May, 6)
	assert.Equal(t, 0, monday.Weekday())
	assert.Equal(t, 6, (monday + 6).Weekday())
	assert.Equal(t, 3, Date(0).Weekday())
	assert.Equal(t, 2, Date(-1).Weekday())
	assert.Equal(t, "2024-05-06", monday.String())
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)

	assert.Error(t, json.Unmarshal([]byte(`"2024-13-01"`), &parsed))
}

func TestParseDate(t *testing.T) {
	d, err := ParseCompactDate("20240506")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.May, 6), d)

	_, err = ParseCompactDate("2024-05-06")
	assert.Error(t, err)
}

func TestCalendarSingleDay(t *testing.T) {
	d0 := NewDate(2024, time.May, 6)

	t.Run("active only on start", func(t *testing.T) {
		cal := Calendar{Start: d0, End: d0 + 1, Weekdays: AllWeekdays()}
		for d := d0 - 10; d < d0+10; d++ {
			assert.Equal(t, d == d0, cal.IsActive(d), d.String())
		}
	})

	t.Run("excluded start", func(t *testing.T) {
		cal := Calendar{Start: d0, End: d0 + 1, Weekdays: AllWeekdays(), Excludes: []Date{d0}}
		for d := d0 - 10; d < d0+10; d++ {
			assert.False(t, cal.IsActive(d), d.String())
		}
	})

	t.Run("included extra day", func(t *testing.T) {
		cal := Calendar{Start: d0, End: d0 + 1, Weekdays: AllWeekdays(), Includes: []Date{d0 + 5}}
		for d := d0 - 10; d < d0+10; d++ {
			assert.Equal(t, d == d0 || d == d0+5, cal.IsActive(d), d.String())
		}
	})
}

func TestCalendarWeekdays(t *testing.T) {
	monday := NewDate(2024, time.May, 6)
	cal := Calendar{Start: monday, End: monday + 14}
	cal.Weekdays[5] = true

	assert.False(t, cal.IsActive(monday))
	assert.True(t, cal.IsActive(monday+5))
	assert.True(t, cal.IsActive(monday+12))
	assert.False(t, cal.IsActive(monday+19))

	cal.Excludes = []Date{monday + 12, monday + 5, monday + 12}
	cal.Normalize()
	assert.Equal(t, []Date{monday + 5, monday + 12}, cal.Excludes)
	assert.False(t, cal.IsActive(monday+5))
}

func TestServicePacking(t *testing.T) {
	w := Waiting()
	assert.True(t, w.IsWaiting())
	assert.Equal(t, WAITING_SERVICE, w.Packed())
	assert.Equal(t, w, ServiceFromPacked(w.Packed()))

	a := Aboard(17)
	id, ok := a.CalRoute()
	assert.True(t, ok)
	assert.Equal(t, uint16(17), id)
	assert.Equal(t, a, ServiceFromPacked(a.Packed()))

	v := Vertex{Stop: 3, Time: 100, Service: a, SuccStart: 42}
	assert.Equal(t, v, v.Pack().Unpack())
}

func TestTimeUnits(t *testing.T) {
	assert.Equal(t, int32(0), SecondsToUnitsCeil(0))
	assert.Equal(t, int32(1), SecondsToUnitsCeil(1))
	assert.Equal(t, int32(1), SecondsToUnitsCeil(5))
	assert.Equal(t, int32(2), SecondsToUnitsCeil(6))
	assert.Equal(t, int32(1), SecondsToUnits(9))
	assert.Equal(t, "8:05", FormatTime(8*3600+5*60+30))
	assert.Equal(t, "25:00", FormatTime(25*3600))
}
