package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	. "github.com/ttpr0/go-transit/util"
)

//*******************************************
// gtfs directory parser
//*******************************************

type _GtfsStop struct {
	ID   string `csv:"stop_id"`
	Name string `csv:"stop_name"`
	Lat  string `csv:"stop_lat"`
	Lon  string `csv:"stop_lon"`
}

type _GtfsRoute struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
}

type _GtfsCalendar struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

type _GtfsCalendarDate struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int    `csv:"exception_type"`
}

type _GtfsTrip struct {
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
	TripID    string `csv:"trip_id"`
}

type _GtfsStopTime struct {
	TripID        string `csv:"trip_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopID        string `csv:"stop_id"`
	StopSequence  int    `csv:"stop_sequence"`
}

func _ParseOptionalFloat(s string) (Optional[float64], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None[float64](), nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None[float64](), fmt.Errorf("%w: malformed coordinate %q", ErrInvalidTimetable, s)
	}
	return Some(value), nil
}

// _ParseStopTimes returns arrival and departure, a missing one is replaced by the other.
func _ParseStopTimes(arrival string, departure string) (int32, int32, error) {
	arrival = strings.TrimSpace(arrival)
	departure = strings.TrimSpace(departure)
	if arrival == "" {
		arrival = departure
	}
	if departure == "" {
		departure = arrival
	}
	if arrival == "" {
		return 0, 0, fmt.Errorf("%w: stop time without arrival and departure", ErrInvalidTimetable)
	}
	arr, err := _ParseDaySeconds(arrival)
	if err != nil {
		return 0, 0, err
	}
	dep, err := _ParseDaySeconds(departure)
	if err != nil {
		return 0, 0, err
	}
	return arr, dep, nil
}

// ParseGtfsDir reads an unzipped gtfs feed. calendar.txt and calendar_dates.txt
// are optional, all other files are required.
func ParseGtfsDir(dir string) (*Timetable, error) {
	builder := _NewTimetableBuilder()
	file := func(name string) string {
		return filepath.Join(dir, name)
	}

	for row, err := range ReadCSVFromFile[_GtfsStop](file("stops.txt"), ',') {
		if err != nil {
			return nil, err
		}
		lat, err := _ParseOptionalFloat(row.Lat)
		if err != nil {
			return nil, err
		}
		lon, err := _ParseOptionalFloat(row.Lon)
		if err != nil {
			return nil, err
		}
		if err := builder.AddStop(row.ID, row.Name, lat, lon); err != nil {
			return nil, err
		}
	}

	for row, err := range ReadCSVFromFile[_GtfsRoute](file("routes.txt"), ',') {
		if err != nil {
			return nil, err
		}
		if err := builder.AddRoute(row.ID, row.ShortName, row.LongName); err != nil {
			return nil, err
		}
	}

	has_calendar := false
	if _, err := os.Stat(file("calendar.txt")); err == nil {
		has_calendar = true
		for row, err := range ReadCSVFromFile[_GtfsCalendar](file("calendar.txt"), ',') {
			if err != nil {
				return nil, err
			}
			weekdays := [7]bool{
				_ParseGtfsBool(row.Monday),
				_ParseGtfsBool(row.Tuesday),
				_ParseGtfsBool(row.Wednesday),
				_ParseGtfsBool(row.Thursday),
				_ParseGtfsBool(row.Friday),
				_ParseGtfsBool(row.Saturday),
				_ParseGtfsBool(row.Sunday),
			}
			first, err := _ParseGtfsDate(row.StartDate)
			if err != nil {
				return nil, err
			}
			last, err := _ParseGtfsDate(row.EndDate)
			if err != nil {
				return nil, err
			}
			if err := builder.AddCalendar(row.ServiceID, weekdays, first, last); err != nil {
				return nil, err
			}
		}
	}
	if _, err := os.Stat(file("calendar_dates.txt")); err == nil {
		has_calendar = true
		for row, err := range ReadCSVFromFile[_GtfsCalendarDate](file("calendar_dates.txt"), ',') {
			if err != nil {
				return nil, err
			}
			date, err := _ParseGtfsDate(row.Date)
			if err != nil {
				return nil, err
			}
			if err := builder.AddCalendarDate(row.ServiceID, date, row.ExceptionType); err != nil {
				return nil, err
			}
		}
	}
	if !has_calendar {
		return nil, fmt.Errorf("%w: neither calendar.txt nor calendar_dates.txt found in %v", ErrInvalidTimetable, dir)
	}

	for row, err := range ReadCSVFromFile[_GtfsTrip](file("trips.txt"), ',') {
		if err != nil {
			return nil, err
		}
		if err := builder.AddTrip(row.TripID, row.RouteID, row.ServiceID); err != nil {
			return nil, err
		}
	}

	for row, err := range ReadCSVFromFile[_GtfsStopTime](file("stop_times.txt"), ',') {
		if err != nil {
			return nil, err
		}
		arr, dep, err := _ParseStopTimes(row.ArrivalTime, row.DepartureTime)
		if err != nil {
			return nil, fmt.Errorf("trip %v: %w", row.TripID, err)
		}
		if err := builder.AddStopTime(row.TripID, row.StopID, int32(row.StopSequence), arr, dep); err != nil {
			return nil, err
		}
	}

	return builder.Finish()
}
