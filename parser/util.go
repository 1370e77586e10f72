package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ttpr0/go-transit/structs"
)

//*******************************************
// utility methods
//*******************************************

// _ParseDaySeconds parses H:MM:SS with hours possibly >= 24.
func _ParseDaySeconds(s string) (int32, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidTimetable, s)
	}
	var values [3]int64
	for i, part := range parts {
		value, err := strconv.ParseInt(part, 10, 32)
		if err != nil || value < 0 {
			return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidTimetable, s)
		}
		values[i] = value
	}
	if values[1] >= 60 || values[2] >= 60 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidTimetable, s)
	}
	return int32(values[0]*3600 + values[1]*60 + values[2]), nil
}

// _ParseGtfsDate accepts 20060102 and 2006-01-02.
func _ParseGtfsDate(s string) (structs.Date, error) {
	s = strings.TrimSpace(s)
	var date structs.Date
	var err error
	if strings.Contains(s, "-") {
		date, err = structs.ParseDate(s)
	} else {
		date, err = structs.ParseCompactDate(s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: malformed date %q", ErrInvalidTimetable, s)
	}
	return date, nil
}

func _ParseGtfsBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "available":
		return true
	default:
		return false
	}
}
