package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// gtfs zip parser
//*******************************************

func ParseGtfsZipFile(file string) (*Timetable, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseGtfsZip(data)
}

// ParseGtfsZip parses a zipped gtfs feed.
func ParseGtfsZip(data []byte) (*Timetable, error) {
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimetable, err)
	}
	if len(static.Warnings) > 0 {
		slog.Warn(fmt.Sprintf("gtfs feed parsed with %v warnings", len(static.Warnings)))
	}

	stop_times, err := _ReadZipStopTimes(data)
	if err != nil {
		return nil, err
	}

	builder := _NewTimetableBuilder()
	for _, stop := range static.Stops {
		lat := None[float64]()
		lon := None[float64]()
		if stop.Latitude != nil && stop.Longitude != nil {
			lat = Some(*stop.Latitude)
			lon = Some(*stop.Longitude)
		}
		if err := builder.AddStop(stop.Id, stop.Name, lat, lon); err != nil {
			return nil, err
		}
	}
	for _, route := range static.Routes {
		if err := builder.AddRoute(route.Id, route.ShortName, route.LongName); err != nil {
			return nil, err
		}
	}
	for _, service := range static.Services {
		weekdays := [7]bool{
			service.Monday,
			service.Tuesday,
			service.Wednesday,
			service.Thursday,
			service.Friday,
			service.Saturday,
			service.Sunday,
		}
		if err := builder.AddCalendar(service.Id, weekdays, structs.DateOf(service.StartDate), structs.DateOf(service.EndDate)); err != nil {
			return nil, err
		}
		for _, date := range service.AddedDates {
			if err := builder.AddCalendarDate(service.Id, structs.DateOf(date), 1); err != nil {
				return nil, err
			}
		}
		for _, date := range service.RemovedDates {
			if err := builder.AddCalendarDate(service.Id, structs.DateOf(date), 2); err != nil {
				return nil, err
			}
		}
	}
	for _, trip := range static.Trips {
		if trip.Route == nil || trip.Service == nil {
			return nil, fmt.Errorf("%w: trip %v without route or service", ErrInvalidTimetable, trip.ID)
		}
		if err := builder.AddTrip(trip.ID, trip.Route.Id, trip.Service.Id); err != nil {
			return nil, err
		}
		for _, st := range trip.StopTimes {
			if st.Stop == nil {
				return nil, fmt.Errorf("%w: trip %v has a stop time without stop", ErrInvalidTimetable, trip.ID)
			}
			arr := int32(st.ArrivalTime / time.Second)
			dep := int32(st.DepartureTime / time.Second)
			if times, ok := stop_times[_StopTimeKey{trip.ID, int32(st.StopSequence)}]; ok {
				arr, dep = times.A, times.B
			}
			if err := builder.AddStopTime(trip.ID, st.Stop.Id, int32(st.StopSequence), arr, dep); err != nil {
				return nil, err
			}
		}
	}
	return builder.Finish()
}

type _StopTimeKey struct {
	Trip     string
	Sequence int32
}

// _ReadZipStopTimes reads arrival and departure of every row of stop_times.txt.
// The gtfs library sets both times to zero when one of them is empty, the
// missing time is taken from the other one instead.
func _ReadZipStopTimes(data []byte) (Dict[_StopTimeKey, Tuple[int32, int32]], error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimetable, err)
	}
	times := NewDict[_StopTimeKey, Tuple[int32, int32]](1000)
	for _, entry := range archive.File {
		if path.Base(entry.Name) != "stop_times.txt" {
			continue
		}
		file, err := entry.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		for row, err := range ReadCSV[_GtfsStopTime](file, entry.Name, ',') {
			if err != nil {
				return nil, err
			}
			arr, dep, err := _ParseStopTimes(row.ArrivalTime, row.DepartureTime)
			if err != nil {
				return nil, fmt.Errorf("trip %v: %w", row.TripID, err)
			}
			times[_StopTimeKey{row.TripID, int32(row.StopSequence)}] = MakeTuple(arr, dep)
		}
		break
	}
	return times, nil
}
