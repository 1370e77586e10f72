package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ttpr0/go-transit/comps"
	"github.com/ttpr0/go-transit/routing"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
)

// ParseQueryDate accepts 2006-01-02 and 20060102.
func ParseQueryDate(s string) (structs.Date, error) {
	if strings.Contains(s, "-") {
		return structs.ParseDate(s)
	}
	return structs.ParseCompactDate(s)
}

// ResolveStops maps comma separated stop ids to stops with zero offset.
func ResolveStops(model *comps.Model, ids string) ([]routing.StopOffset, error) {
	stops := NewList[routing.StopOffset](2)
	for _, id := range strings.Split(ids, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		stop, ok := model.FindStop(id)
		if !ok {
			return nil, fmt.Errorf("unknown stop %q", id)
		}
		stops.Add(routing.StopOffset{Stop: stop, Offset: 0})
	}
	if stops.Length() == 0 {
		return nil, fmt.Errorf("no stops given")
	}
	return stops, nil
}

func NewStopResponse(model *comps.Model, stop int32) StopResponse {
	s := model.Stops[stop]
	return StopResponse{
		ID:   s.ID,
		Name: s.Name,
		Loc:  s.Loc,
	}
}

func NewConnectionResponse(model *comps.Model, conn routing.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		Departure: structs.FormatTime(conn.StartTime),
		Arrival:   structs.FormatTime(conn.EndTime),
		StartTime: conn.StartTime,
		EndTime:   conn.EndTime,
		Segments:  make([]SegmentResponse, 0, conn.Segments.Length()),
	}
	for _, segment := range conn.Segments {
		info := model.DescribeSegment(segment.StartVertex, segment.EndVertex)
		resp.Segments = append(resp.Segments, SegmentResponse{
			From:      NewStopResponse(model, info.FromStop),
			To:        NewStopResponse(model, info.ToStop),
			Departure: structs.FormatTime(info.Departure),
			Arrival:   structs.FormatTime(info.Arrival),
			Route:     info.Route,
		})
	}
	return resp
}

func NewConnectionsResponse(model *comps.Model, date structs.Date, conns List[routing.Connection]) ConnectionsResponse {
	resp := ConnectionsResponse{
		Date:        date,
		Connections: make([]ConnectionResponse, 0, conns.Length()),
	}
	for _, conn := range conns {
		resp.Connections = append(resp.Connections, NewConnectionResponse(model, conn))
	}
	return resp
}

// PrintConnections writes one block per connection with a line per ride.
func PrintConnections(w io.Writer, model *comps.Model, date structs.Date, conns List[routing.Connection]) {
	if conns.Length() == 0 {
		fmt.Fprintf(w, "no connections on %v\n", date)
		return
	}
	for i, conn := range conns {
		resp := NewConnectionResponse(model, conn)
		fmt.Fprintf(w, "%d. %v -> %v (%d rides)\n", i+1, resp.Departure, resp.Arrival, len(resp.Segments))
		for _, segment := range resp.Segments {
			fmt.Fprintf(w, "   %-6v %v %v -> %v %v\n", segment.Route, segment.Departure, segment.From.Name, segment.Arrival, segment.To.Name)
		}
	}
}
