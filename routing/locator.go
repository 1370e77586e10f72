package routing

import (
	"cmp"
	"math"
	"slices"

	"github.com/kyroy/kdtree"
	"github.com/ttpr0/go-transit/comps"
	"github.com/ttpr0/go-transit/geo"
	. "github.com/ttpr0/go-transit/util"
)

type _StopPoint struct {
	coord [2]float64
	loc   geo.Coord
	stop  int32
}

func (self *_StopPoint) Dimensions() int {
	return 2
}
func (self *_StopPoint) Dimension(i int) float64 {
	return self.coord[i]
}

// StopLocator maps coordinates to nearby stops with walking offsets.
type StopLocator struct {
	tree       *kdtree.KDTree
	proj       geo.Projection
	walk_speed float64
}

// NewStopLocator indexes all stops with a location and at least one event.
// walk_speed is given in km/h.
func NewStopLocator(model *comps.Model, walk_speed float64) *StopLocator {
	coords := NewList[geo.Coord](model.StopCount())
	for _, stop := range model.Stops {
		if stop.Loc.HasValue() {
			coords.Add(stop.Loc.Value)
		}
	}
	proj := geo.NewProjectionFor(coords)
	points := make([]kdtree.Point, 0, coords.Length())
	for i, stop := range model.Stops {
		if !stop.Loc.HasValue() || !stop.FirstVertex.HasValue() {
			continue
		}
		points = append(points, &_StopPoint{
			coord: proj.Project(stop.Loc.Value),
			loc:   stop.Loc.Value,
			stop:  int32(i),
		})
	}
	var tree *kdtree.KDTree
	if len(points) > 0 {
		tree = kdtree.New(points)
	}
	return &StopLocator{
		tree:       tree,
		proj:       proj,
		walk_speed: walk_speed,
	}
}

// FindNearest returns up to count stops within max_dist metres of coord,
// nearest first. Offsets are the walking times in seconds.
func (self *StopLocator) FindNearest(coord geo.Coord, max_dist float64, count int) List[StopOffset] {
	stops := NewList[StopOffset](count)
	if self.tree == nil || count <= 0 {
		return stops
	}
	p := self.proj.Project(coord)
	query := &_StopPoint{coord: p}
	speed := self.walk_speed / 3.6
	for _, point := range self.tree.KNN(query, count) {
		stop := point.(*_StopPoint)
		dist := geo.Distance(coord, stop.loc)
		if dist > max_dist {
			continue
		}
		stops.Add(StopOffset{
			Stop:   stop.stop,
			Offset: int32(math.Ceil(dist / speed)),
		})
	}
	slices.SortStableFunc(stops, func(a, b StopOffset) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return stops
}
