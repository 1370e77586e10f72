package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// Coord is a (lon, lat) pair in WGS84.
type Coord [2]float32

func (self Coord) Lon() float32 {
	return self[0]
}
func (self Coord) Lat() float32 {
	return self[1]
}
func (self Coord) Point() orb.Point {
	return orb.Point{float64(self[0]), float64(self[1])}
}

// Distance returns the great circle distance in metres.
func Distance(a, b Coord) float64 {
	return orbgeo.Distance(a.Point(), b.Point())
}

//*******************************************
// planar projection
//*******************************************

// Projection maps WGS84 coordinates to a planar grid in approximate metres
// (spherical mercator scaled to the reference latitude).
type Projection struct {
	scale float64
}

func NewProjection(ref_lat float64) Projection {
	return Projection{
		scale: math.Cos(ref_lat * math.Pi / 180),
	}
}

// NewProjectionFor uses the mean latitude of coords as reference.
func NewProjectionFor(coords []Coord) Projection {
	if len(coords) == 0 {
		return NewProjection(0)
	}
	sum := 0.0
	for _, c := range coords {
		sum += float64(c.Lat())
	}
	return NewProjection(sum / float64(len(coords)))
}

func (self Projection) Project(c Coord) [2]float64 {
	p := project.WGS84.ToMercator(c.Point())
	return [2]float64{p[0] * self.scale, p[1] * self.scale}
}

func ManhattanDistance(a, b [2]float64) float64 {
	return math.Abs(a[0]-b[0]) + math.Abs(a[1]-b[1])
}
