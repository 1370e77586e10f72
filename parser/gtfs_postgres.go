package parser

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// gtfs postgres loader
//*******************************************

// LoadGtfsPostgres reads a gtfs feed imported into the standard gtfs tables.
func LoadGtfsPostgres(ctx context.Context, dsn string) (*Timetable, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ping_ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ping_ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	builder := _NewTimetableBuilder()
	t := time.Now()
	if err := _QueryStops(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	if err := _QueryRoutes(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	if err := _QueryCalendars(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}
	if err := _QueryCalendarDates(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query calendar_dates: %w", err)
	}
	if err := _QueryTrips(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	if err := _QueryStopTimes(ctx, db, builder); err != nil {
		return nil, fmt.Errorf("query stop_times: %w", err)
	}
	slog.Info(fmt.Sprintf("loaded gtfs tables in %v", time.Since(t)))

	return builder.Finish()
}

func _QueryStops(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	q := `SELECT stop_id, COALESCE(stop_name, ''), stop_lat, stop_lon FROM stops ORDER BY stop_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&id, &name, &lat, &lon); err != nil {
			return err
		}
		if err := builder.AddStop(id, name, _NullFloat(lat), _NullFloat(lon)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _QueryRoutes(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	q := `SELECT route_id, COALESCE(route_short_name, ''), COALESCE(route_long_name, '') FROM routes ORDER BY route_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, short_name, long_name string
		if err := rows.Scan(&id, &short_name, &long_name); err != nil {
			return err
		}
		if err := builder.AddRoute(id, short_name, long_name); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _QueryCalendars(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	// weekday columns are integers or enums depending on the importer
	q := `SELECT service_id, monday::text, tuesday::text, wednesday::text, thursday::text,
                 friday::text, saturday::text, sunday::text, start_date::text, end_date::text
          FROM calendar ORDER BY service_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, start, end string
		var days [7]string
		if err := rows.Scan(&id, &days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6], &start, &end); err != nil {
			return err
		}
		if err := _AddCalendarRow(builder, id, days, start, end); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _QueryCalendarDates(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	q := `SELECT service_id, date::text, exception_type::text FROM calendar_dates ORDER BY service_id, date`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, date_str, exception_str string
		if err := rows.Scan(&id, &date_str, &exception_str); err != nil {
			return err
		}
		if err := _AddCalendarDateRow(builder, id, date_str, exception_str); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _QueryTrips(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	q := `SELECT trip_id, route_id, service_id FROM trips ORDER BY trip_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, route, service string
		if err := rows.Scan(&id, &route, &service); err != nil {
			return err
		}
		if err := builder.AddTrip(id, route, service); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _QueryStopTimes(ctx context.Context, db *sql.DB, builder *_TimetableBuilder) error {
	q := `SELECT trip_id, stop_id, stop_sequence,
                 COALESCE(arrival_time::text, ''), COALESCE(departure_time::text, '')
          FROM stop_times ORDER BY trip_id, stop_sequence`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var trip, stop, arr_str, dep_str string
		var sequence int32
		if err := rows.Scan(&trip, &stop, &sequence, &arr_str, &dep_str); err != nil {
			return err
		}
		if err := _AddStopTimeRow(builder, trip, stop, sequence, arr_str, dep_str); err != nil {
			return err
		}
	}
	return rows.Err()
}

func _NullFloat(value sql.NullFloat64) Optional[float64] {
	if !value.Valid {
		return None[float64]()
	}
	return Some(value.Float64)
}

//*******************************************
// row mapping
//*******************************************

// weekday columns arrive as "1"/"0", "true"/"false" or enum labels
func _AddCalendarRow(builder *_TimetableBuilder, id string, days [7]string, start string, end string) error {
	var weekdays [7]bool
	for i, day := range days {
		weekdays[i] = _ParseGtfsBool(day)
	}
	first, err := _ParseGtfsDate(start)
	if err != nil {
		return err
	}
	last, err := _ParseGtfsDate(end)
	if err != nil {
		return err
	}
	return builder.AddCalendar(id, weekdays, first, last)
}

func _AddCalendarDateRow(builder *_TimetableBuilder, id string, date_str string, exception_str string) error {
	date, err := _ParseGtfsDate(date_str)
	if err != nil {
		return err
	}
	exception := 0
	switch strings.ToLower(strings.TrimSpace(exception_str)) {
	case "1", "added":
		exception = 1
	case "2", "removed":
		exception = 2
	}
	return builder.AddCalendarDate(id, date, exception)
}

func _AddStopTimeRow(builder *_TimetableBuilder, trip string, stop string, sequence int32, arr_str string, dep_str string) error {
	arr_str, err := _NormalizeInterval(arr_str)
	if err != nil {
		return fmt.Errorf("trip %v: %w", trip, err)
	}
	dep_str, err = _NormalizeInterval(dep_str)
	if err != nil {
		return fmt.Errorf("trip %v: %w", trip, err)
	}
	arr, dep, err := _ParseStopTimes(arr_str, dep_str)
	if err != nil {
		return fmt.Errorf("trip %v: %w", trip, err)
	}
	return builder.AddStopTime(trip, stop, sequence, arr, dep)
}

// _NormalizeInterval turns the text form of an interval column ("1 day 01:30:00")
// into gtfs time notation ("25:30:00"). Other strings are returned unchanged.
func _NormalizeInterval(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 || !strings.HasPrefix(fields[1], "day") {
		return s, nil
	}
	days, err := strconv.Atoi(fields[0])
	if err != nil || days < 0 {
		return "", fmt.Errorf("%w: malformed interval %q", ErrInvalidTimetable, s)
	}
	seconds := int32(0)
	if len(fields) == 3 {
		seconds, err = _ParseDaySeconds(fields[2])
		if err != nil {
			return "", err
		}
	}
	seconds += int32(days) * 24 * 3600
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60), nil
}
