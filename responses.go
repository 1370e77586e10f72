package main

import (
	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
)

type ErrorResponse struct {
	Request string `json:"request"`
	Error   any    `json:"error"`
}

func NewErrorResponse(request string, error any) ErrorResponse {
	return ErrorResponse{
		Request: request,
		Error:   error,
	}
}

type StopResponse struct {
	ID   string              `json:"id"`
	Name string              `json:"name"`
	Loc  Optional[geo.Coord] `json:"loc"`
}

type SegmentResponse struct {
	From      StopResponse `json:"from"`
	To        StopResponse `json:"to"`
	Departure string       `json:"departure"`
	Arrival   string       `json:"arrival"`
	Route     string       `json:"route"`
}

type ConnectionResponse struct {
	Departure string            `json:"departure"`
	Arrival   string            `json:"arrival"`
	StartTime int32             `json:"start_time"`
	EndTime   int32             `json:"end_time"`
	Segments  []SegmentResponse `json:"segments"`
}

type ConnectionsResponse struct {
	Date        structs.Date         `json:"date"`
	Connections []ConnectionResponse `json:"connections"`
}

type NearStopResponse struct {
	Stop   StopResponse `json:"stop"`
	Offset int32        `json:"offset"`
}

type NearStopsResponse struct {
	Stops []NearStopResponse `json:"stops"`
}
