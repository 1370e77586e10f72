package structs

import (
	"encoding/json"
	"fmt"

	"github.com/ttpr0/go-transit/geo"
	. "github.com/ttpr0/go-transit/util"
)

//*******************************************
// constants
//*******************************************

const (
	// seconds per time unit of a vertex
	TIME_GRANULARITY = 5
	// default minimum buffer after leaving a vehicle in seconds
	DEFAULT_TRANSFER_TIME = 120

	MAX_STOPS     = 65535
	MAX_CALROUTES = 65535
	MAX_TIME      = 65535

	// packed service value of waiting vertices
	WAITING_SERVICE uint16 = 0xFFFF

	// size of a packed vertex record in bytes
	VERTEX_SIZE = 10
	// size of a packed successor entry in bytes
	SUCC_SIZE = 4
)

//*******************************************
// model structs
//*******************************************

type Stop struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Loc         Optional[geo.Coord] `json:"loc"`
	FirstVertex Optional[int32]     `json:"first_vertex"`
}

// CalRoute is a deduplicated (calendar, route) pair.
type CalRoute struct {
	RouteShortName string `json:"route_short_name"`
	Calendar       uint16 `json:"calendar"`
}

//*******************************************
// service
//*******************************************

// Service is either waiting at a stop or riding a vehicle of a CalRoute.
type Service struct {
	calroute uint16
	aboard   bool
}

func Waiting() Service {
	return Service{}
}
func Aboard(calroute uint16) Service {
	return Service{calroute: calroute, aboard: true}
}
func ServiceFromPacked(value uint16) Service {
	if value == WAITING_SERVICE {
		return Waiting()
	}
	return Aboard(value)
}

func (self Service) IsWaiting() bool {
	return !self.aboard
}
func (self Service) CalRoute() (uint16, bool) {
	return self.calroute, self.aboard
}
func (self Service) Packed() uint16 {
	if !self.aboard {
		return WAITING_SERVICE
	}
	return self.calroute
}
func (self Service) String() string {
	if !self.aboard {
		return "waiting"
	}
	return fmt.Sprintf("aboard(%d)", self.calroute)
}
func (self Service) MarshalJSON() ([]byte, error) {
	if !self.aboard {
		return []byte("null"), nil
	}
	return json.Marshal(self.calroute)
}

//*******************************************
// vertex
//*******************************************

// Vertex of the time expanded graph. Time is given in TIME_GRANULARITY units.
type Vertex struct {
	Stop      uint16
	Time      uint16
	Service   Service
	SuccStart int32
}

// PackedVertex is the on disk layout of a vertex (10 bytes, little endian).
type PackedVertex struct {
	Stop      uint16
	Time      uint16
	Service   uint16
	SuccStart int32
}

func (self Vertex) Pack() PackedVertex {
	return PackedVertex{
		Stop:      self.Stop,
		Time:      self.Time,
		Service:   self.Service.Packed(),
		SuccStart: self.SuccStart,
	}
}
func (self PackedVertex) Unpack() Vertex {
	return Vertex{
		Stop:      self.Stop,
		Time:      self.Time,
		Service:   ServiceFromPacked(self.Service),
		SuccStart: self.SuccStart,
	}
}

// VertexKey identifies a vertex independent of its edges.
type VertexKey struct {
	Stop    uint16
	Time    uint16
	Service Service
}

func (self Vertex) Key() VertexKey {
	return VertexKey{Stop: self.Stop, Time: self.Time, Service: self.Service}
}

//*******************************************
// time conversion
//*******************************************

// SecondsToUnits rounds down to the time granularity.
func SecondsToUnits(seconds int32) int32 {
	return seconds / TIME_GRANULARITY
}

// SecondsToUnitsCeil rounds up to the time granularity.
func SecondsToUnitsCeil(seconds int32) int32 {
	return (seconds + TIME_GRANULARITY - 1) / TIME_GRANULARITY
}

func UnitsToSeconds(units int32) int32 {
	return units * TIME_GRANULARITY
}

// FormatTime prints seconds since midnight as H:MM.
func FormatTime(seconds int32) string {
	minutes := seconds / 60
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
