package parser

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// timetable builder
//*******************************************

// _TimetableBuilder resolves string ids of a feed into timetable indices.
type _TimetableBuilder struct {
	tt           *Timetable
	stop_ids     Dict[string, int32]
	route_ids    Dict[string, int32]
	calendar_ids Dict[string, int32]
	trip_ids     Dict[string, int32]
}

func _NewTimetableBuilder() *_TimetableBuilder {
	return &_TimetableBuilder{
		tt:           NewTimetable(),
		stop_ids:     NewDict[string, int32](100),
		route_ids:    NewDict[string, int32](10),
		calendar_ids: NewDict[string, int32](10),
		trip_ids:     NewDict[string, int32](100),
	}
}

func (self *_TimetableBuilder) AddStop(id string, name string, lat Optional[float64], lon Optional[float64]) error {
	if self.stop_ids.ContainsKey(id) {
		return fmt.Errorf("%w: duplicate stop %v", ErrInvalidTimetable, id)
	}
	loc := None[geo.Coord]()
	// 0,0 marks unknown coordinates in many feeds
	if lat.HasValue() && lon.HasValue() && !(lat.Value == 0 && lon.Value == 0) {
		loc = Some(geo.Coord{float32(lon.Value), float32(lat.Value)})
	}
	self.stop_ids[id] = int32(self.tt.Stops.Length())
	self.tt.Stops.Add(Stop{ID: id, Name: name, Loc: loc})
	return nil
}

func (self *_TimetableBuilder) AddRoute(id string, short_name string, long_name string) error {
	if self.route_ids.ContainsKey(id) {
		return fmt.Errorf("%w: duplicate route %v", ErrInvalidTimetable, id)
	}
	if short_name == "" {
		short_name = long_name
	}
	self.route_ids[id] = int32(self.tt.Routes.Length())
	self.tt.Routes.Add(Route{ID: id, ShortName: short_name})
	return nil
}

func (self *_TimetableBuilder) _GetCalendar(id string) int32 {
	if index, ok := self.calendar_ids[id]; ok {
		return index
	}
	index := int32(self.tt.Calendars.Length())
	self.calendar_ids[id] = index
	self.tt.Calendars.Add(Calendar{ID: id})
	return index
}

// AddCalendar adds a weekly pattern, last is the inclusive last service day.
func (self *_TimetableBuilder) AddCalendar(id string, weekdays [7]bool, first structs.Date, last structs.Date) error {
	if last < first {
		return fmt.Errorf("%w: calendar %v ends before it starts", ErrInvalidTimetable, id)
	}
	index := self._GetCalendar(id)
	pattern := &self.tt.Calendars[index].Pattern
	pattern.Weekdays = weekdays
	pattern.Start = first
	pattern.End = last + 1
	return nil
}

// AddCalendarDate adds an exception, 1 adds and 2 removes service on date.
func (self *_TimetableBuilder) AddCalendarDate(id string, date structs.Date, exception int) error {
	index := self._GetCalendar(id)
	pattern := &self.tt.Calendars[index].Pattern
	switch exception {
	case 1:
		pattern.Includes = append(pattern.Includes, date)
	case 2:
		pattern.Excludes = append(pattern.Excludes, date)
	default:
		return fmt.Errorf("%w: invalid exception type %v for service %v", ErrInvalidTimetable, exception, id)
	}
	return nil
}

func (self *_TimetableBuilder) AddTrip(id string, route string, service string) error {
	if self.trip_ids.ContainsKey(id) {
		return fmt.Errorf("%w: duplicate trip %v", ErrInvalidTimetable, id)
	}
	route_index, ok := self.route_ids[route]
	if !ok {
		return fmt.Errorf("%w: trip %v references unknown route %v", ErrInvalidTimetable, id, route)
	}
	calendar_index, ok := self.calendar_ids[service]
	if !ok {
		return fmt.Errorf("%w: trip %v references unknown service %v", ErrInvalidTimetable, id, service)
	}
	self.trip_ids[id] = int32(self.tt.Trips.Length())
	self.tt.Trips.Add(Trip{
		ID:        id,
		Route:     route_index,
		Calendar:  calendar_index,
		StopTimes: NewList[StopTime](10),
	})
	return nil
}

func (self *_TimetableBuilder) AddStopTime(trip string, stop string, sequence int32, arrival int32, departure int32) error {
	trip_index, ok := self.trip_ids[trip]
	if !ok {
		return fmt.Errorf("%w: stop time references unknown trip %v", ErrInvalidTimetable, trip)
	}
	stop_index, ok := self.stop_ids[stop]
	if !ok {
		return fmt.Errorf("%w: trip %v references unknown stop %v", ErrInvalidTimetable, trip, stop)
	}
	self.tt.Trips[trip_index].StopTimes.Add(StopTime{
		Stop:      stop_index,
		Sequence:  sequence,
		Arrival:   arrival,
		Departure: departure,
	})
	return nil
}

// Finish orders stop times, drops trips without stop times and validates the result.
func (self *_TimetableBuilder) Finish() (*Timetable, error) {
	tt := self.tt
	trips := NewList[Trip](tt.Trips.Length())
	dropped := 0
	for _, trip := range tt.Trips {
		if trip.StopTimes.Length() == 0 {
			dropped += 1
			continue
		}
		slices.SortStableFunc(trip.StopTimes, func(a, b StopTime) int {
			return cmp.Compare(a.Sequence, b.Sequence)
		})
		trips.Add(trip)
	}
	if dropped > 0 {
		slog.Warn(fmt.Sprintf("dropped %v trips without stop times", dropped))
	}
	tt.Trips = trips
	for i := range tt.Calendars {
		tt.Calendars[i].Pattern.Normalize()
	}
	if err := tt.Validate(); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("parsed timetable with %v stops, %v routes, %v calendars and %v trips", tt.Stops.Length(), tt.Routes.Length(), tt.Calendars.Length(), tt.Trips.Length()))
	return tt, nil
}
