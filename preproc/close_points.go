package preproc

import (
	"math"

	"github.com/ttpr0/go-transit/geo"
	. "github.com/ttpr0/go-transit/util"
)

//*******************************************
// close point finder
//*******************************************

type _GridPoint[T any] struct {
	Pos   [2]float64
	Value T
}

// ClosePointFinder finds all pairs of points closer than a maximum distance
// in the manhattan metric using a uniform grid with cell size equal to that
// distance.
type ClosePointFinder[T any] struct {
	max_dist float64
	points   List[_GridPoint[T]]
	cells    Dict[[2]int64, List[int32]]
}

func NewClosePointFinder[T any](max_dist float64) *ClosePointFinder[T] {
	return &ClosePointFinder[T]{
		max_dist: max_dist,
		points:   NewList[_GridPoint[T]](100),
		cells:    NewDict[[2]int64, List[int32]](100),
	}
}

func (self *ClosePointFinder[T]) _Cell(x, y float64) [2]int64 {
	return [2]int64{int64(math.Floor(x / self.max_dist)), int64(math.Floor(y / self.max_dist))}
}

func (self *ClosePointFinder[T]) Add(x, y float64, value T) {
	id := int32(self.points.Length())
	self.points.Add(_GridPoint[T]{Pos: [2]float64{x, y}, Value: value})
	cell := self._Cell(x, y)
	bucket := self.cells[cell]
	bucket.Add(id)
	self.cells[cell] = bucket
}

func (self *ClosePointFinder[T]) PointCount() int {
	return self.points.Length()
}

// ForClosePairs calls callback for every ordered pair (a, b) with a != b and
// distance < max distance. Pairs are reported in insertion order of a.
func (self *ClosePointFinder[T]) ForClosePairs(callback func(a, b T, dist float64)) {
	for i, point := range self.points {
		cell := self._Cell(point.Pos[0], point.Pos[1])
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				bucket, ok := self.cells[[2]int64{cell[0] + dx, cell[1] + dy}]
				if !ok {
					continue
				}
				for _, j := range bucket {
					if int(j) == i {
						continue
					}
					other := self.points[j]
					dist := geo.ManhattanDistance(point.Pos, other.Pos)
					if dist < self.max_dist {
						callback(point.Value, other.Value, dist)
					}
				}
			}
		}
	}
}

// ClosePairs collects all pairs reported by ForClosePairs.
func (self *ClosePointFinder[T]) ClosePairs() List[Triple[T, T, float64]] {
	pairs := NewList[Triple[T, T, float64]](self.points.Length())
	self.ForClosePairs(func(a, b T, dist float64) {
		pairs.Add(MakeTriple(a, b, dist))
	})
	return pairs
}
