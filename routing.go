package main

import (
	"fmt"

	"github.com/julienschmidt/httprouter"
	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/routing"
)

//**********************************************************
// routes
//**********************************************************

func RegisterRoutes(app *httprouter.Router, manager *ModelManager) {
	MapGet(app, "/v0/connections", HandleConnectionsRequest(manager))
	MapPost(app, "/v0/connections", HandleConnectionsPostRequest(manager))
	MapGet(app, "/v0/stops/near", HandleNearStopsRequest(manager))
}

//**********************************************************
// connection handlers
//**********************************************************

func _ResolveEndpoint(manager *ModelManager, id string, lon float64, lat float64) ([]routing.StopOffset, error) {
	if id != "" {
		return ResolveStops(manager.Model(), id)
	}
	services := manager.config.Services
	stops := manager.FindNearestStops(geo.Coord{float32(lon), float32(lat)}, services.MaxDistance, services.MaxStops)
	if stops.Length() == 0 {
		return nil, fmt.Errorf("no stop within %vm of %v,%v", services.MaxDistance, lon, lat)
	}
	return stops, nil
}

func HandleConnectionsRequest(manager *ModelManager) func(ConnectionsRequest) Result {
	return func(req ConnectionsRequest) Result {
		date, err := ParseQueryDate(req.Date)
		if err != nil {
			return BadRequest("invalid date")
		}
		from, err := _ResolveEndpoint(manager, req.From, req.FromLon, req.FromLat)
		if err != nil {
			return NotFound(err.Error())
		}
		to, err := _ResolveEndpoint(manager, req.To, req.ToLon, req.ToLat)
		if err != nil {
			return NotFound(err.Error())
		}
		conns := manager.FindConnections(date, from, to)
		return OK(NewConnectionsResponse(manager.Model(), date, conns))
	}
}

func _ResolveOffsets(manager *ModelManager, params []StopOffsetParams) ([]routing.StopOffset, error) {
	stops := make([]routing.StopOffset, 0, len(params))
	for _, p := range params {
		stop, ok := manager.Model().FindStop(p.Stop)
		if !ok {
			return nil, fmt.Errorf("unknown stop %q", p.Stop)
		}
		stops = append(stops, routing.StopOffset{Stop: stop, Offset: p.Offset})
	}
	return stops, nil
}

func HandleConnectionsPostRequest(manager *ModelManager) func(ConnectionsPostRequest) Result {
	return func(req ConnectionsPostRequest) Result {
		date, err := ParseQueryDate(req.Date)
		if err != nil {
			return BadRequest("invalid date")
		}
		from, err := _ResolveOffsets(manager, req.From)
		if err != nil {
			return NotFound(err.Error())
		}
		to, err := _ResolveOffsets(manager, req.To)
		if err != nil {
			return NotFound(err.Error())
		}
		conns := manager.FindConnections(date, from, to)
		return OK(NewConnectionsResponse(manager.Model(), date, conns))
	}
}

//**********************************************************
// stop handlers
//**********************************************************

func HandleNearStopsRequest(manager *ModelManager) func(NearStopsRequest) Result {
	return func(req NearStopsRequest) Result {
		services := manager.config.Services
		radius := req.Radius
		if radius == 0 || radius > services.MaxDistance {
			radius = services.MaxDistance
		}
		count := req.Count
		if count == 0 || count > services.MaxResults {
			count = services.MaxResults
		}
		stops := manager.FindNearestStops(geo.Coord{float32(req.Lon), float32(req.Lat)}, radius, count)
		resp := NearStopsResponse{
			Stops: make([]NearStopResponse, 0, stops.Length()),
		}
		for _, stop := range stops {
			resp.Stops = append(resp.Stops, NearStopResponse{
				Stop:   NewStopResponse(manager.Model(), stop.Stop),
				Offset: stop.Offset,
			})
		}
		return OK(resp)
	}
}
