package main

//**********************************************************
// requests
//**********************************************************

// ConnectionsRequest names origin and destination either by stop id or by
// coordinates. Coordinates are only used when the id is empty.
type ConnectionsRequest struct {
	Date string `json:"date" validate:"required"`

	From    string  `json:"from"`
	FromLon float64 `json:"from_lon" validate:"gte=-180,lte=180"`
	FromLat float64 `json:"from_lat" validate:"gte=-90,lte=90"`

	To    string  `json:"to"`
	ToLon float64 `json:"to_lon" validate:"gte=-180,lte=180"`
	ToLat float64 `json:"to_lat" validate:"gte=-90,lte=90"`
}

// StopOffsetParams is a stop id with an access or egress time in seconds.
type StopOffsetParams struct {
	Stop   string `json:"stop" validate:"required"`
	Offset int32  `json:"offset" validate:"gte=0"`
}

type ConnectionsPostRequest struct {
	Date string             `json:"date" validate:"required"`
	From []StopOffsetParams `json:"from" validate:"required,min=1,dive"`
	To   []StopOffsetParams `json:"to" validate:"required,min=1,dive"`
}

type NearStopsRequest struct {
	Lon    float64 `json:"lon" validate:"gte=-180,lte=180"`
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Radius float64 `json:"radius" validate:"gte=0"`
	Count  int     `json:"count" validate:"gte=0"`
}
