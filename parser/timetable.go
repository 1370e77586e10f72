package parser

import (
	"errors"
	"fmt"

	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
)

var ErrInvalidTimetable = errors.New("invalid timetable")

//*******************************************
// timetable
//*******************************************

// Timetable is a parsed schedule with all references resolved to indices.
type Timetable struct {
	Stops     List[Stop]
	Routes    List[Route]
	Calendars List[Calendar]
	Trips     List[Trip]
}

type Stop struct {
	ID   string
	Name string
	Loc  Optional[geo.Coord]
}

type Route struct {
	ID        string
	ShortName string
}

type Calendar struct {
	ID      string
	Pattern structs.Calendar
}

type Trip struct {
	ID        string
	Route     int32
	Calendar  int32
	StopTimes List[StopTime]
}

// StopTime times are seconds since midnight of the service day and may
// exceed 24 hours.
type StopTime struct {
	Stop      int32
	Sequence  int32
	Arrival   int32
	Departure int32
}

func NewTimetable() *Timetable {
	return &Timetable{
		Stops:     NewList[Stop](100),
		Routes:    NewList[Route](10),
		Calendars: NewList[Calendar](10),
		Trips:     NewList[Trip](100),
	}
}

// Validate checks referential integrity and stop time ordering.
func (self *Timetable) Validate() error {
	for i, trip := range self.Trips {
		if trip.Route < 0 || int(trip.Route) >= self.Routes.Length() {
			return fmt.Errorf("%w: trip %v (%d) references unknown route %d", ErrInvalidTimetable, trip.ID, i, trip.Route)
		}
		if trip.Calendar < 0 || int(trip.Calendar) >= self.Calendars.Length() {
			return fmt.Errorf("%w: trip %v (%d) references unknown calendar %d", ErrInvalidTimetable, trip.ID, i, trip.Calendar)
		}
		if trip.StopTimes.Length() == 0 {
			return fmt.Errorf("%w: trip %v has no stop times", ErrInvalidTimetable, trip.ID)
		}
		for j, st := range trip.StopTimes {
			if st.Stop < 0 || int(st.Stop) >= self.Stops.Length() {
				return fmt.Errorf("%w: trip %v references unknown stop %d", ErrInvalidTimetable, trip.ID, st.Stop)
			}
			if st.Arrival < 0 || st.Departure < st.Arrival {
				return fmt.Errorf("%w: trip %v has invalid times at sequence %d", ErrInvalidTimetable, trip.ID, st.Sequence)
			}
			if j == 0 {
				continue
			}
			prev := trip.StopTimes[j-1]
			if st.Sequence <= prev.Sequence {
				return fmt.Errorf("%w: trip %v stop times are not ordered by sequence", ErrInvalidTimetable, trip.ID)
			}
			if st.Arrival < prev.Departure {
				return fmt.Errorf("%w: trip %v arrives at sequence %d before departing the previous stop", ErrInvalidTimetable, trip.ID, st.Sequence)
			}
		}
	}
	return nil
}
