package routing

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ttpr0/go-transit/comps"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
)

const (
	NOT_VISITED  int32 = -1
	STARTED_HERE int32 = -2
)

// StopOffset is a stop with an access or egress time in seconds.
type StopOffset struct {
	Stop   int32
	Offset int32
}

// Segment is one uninterrupted vehicle ride between two aboard vertices.
type Segment struct {
	StartVertex int32
	EndVertex   int32
}

// Connection times are seconds since midnight of the query date.
type Connection struct {
	StartTime int32
	EndTime   int32
	Segments  List[Segment]
}

type _Candidate struct {
	Vertex int32
	Time   int32
}

const (
	_CAL_UNKNOWN byte = iota
	_CAL_ACTIVE
	_CAL_INACTIVE
)

//*******************************************
// router
//*******************************************

// Router answers connection queries on a date. It owns the mutable query
// state, so concurrent queries need separate routers sharing one model.
type Router struct {
	model *comps.Model
	graph *comps.CompactGraph
	date  structs.Date

	pred      Array[int32]
	root_time Dict[int32, int32]
	cal_cache Array[byte]
	queue     Queue[int32]
}

func NewRouter(model *comps.Model, date structs.Date) *Router {
	return &Router{
		model:     model,
		graph:     model.Graph,
		date:      date,
		pred:      NewArray[int32](model.Graph.VertexCount()),
		root_time: NewDict[int32, int32](100),
		cal_cache: NewArray[byte](model.Calendars.Length()),
		queue:     NewQueue[int32](1000),
	}
}

func (self *Router) _Reset() {
	for i := range self.pred {
		self.pred[i] = NOT_VISITED
	}
	clear(self.root_time)
	self.queue.Clear()
}

// _IsAdmissible reports whether u may be traversed on the query date.
func (self *Router) _IsAdmissible(u int32) bool {
	calroute, ok := self.graph.GetService(u).CalRoute()
	if !ok {
		return true
	}
	cal := self.model.GetCalendar(calroute)
	switch self.cal_cache[cal] {
	case _CAL_ACTIVE:
		return true
	case _CAL_INACTIVE:
		return false
	}
	active := self.model.Calendars[cal].IsActive(self.date)
	if active {
		self.cal_cache[cal] = _CAL_ACTIVE
	} else {
		self.cal_cache[cal] = _CAL_INACTIVE
	}
	return active
}

// _StopsVertices collects the waiting vertices of stops with their time
// shifted by sign*offset. Vertices whose shifted time is negative are dropped.
func (self *Router) _StopsVertices(stops []StopOffset, sign int32) List[_Candidate] {
	candidates := NewList[_Candidate](100)
	for _, stop := range stops {
		if stop.Stop < 0 || int(stop.Stop) >= self.model.StopCount() {
			continue
		}
		offset := structs.SecondsToUnitsCeil(max(stop.Offset, 0))
		for u := range self.model.StopVertices(stop.Stop) {
			tm := int32(self.graph.GetTime(u)) + sign*offset
			if tm < 0 {
				continue
			}
			candidates.Add(_Candidate{Vertex: u, Time: tm})
		}
	}
	return candidates
}

func (self *Router) _Traverse(root int32) {
	self.pred[root] = STARTED_HERE
	self.queue.Clear()
	self.queue.Push(root)
	for {
		u, ok := self.queue.Pop()
		if !ok {
			break
		}
		start, end := self.graph.GetSuccessorRange(u)
		for e := start; e < end; e++ {
			v := self.graph.GetSuccessor(e)
			if self.pred[v] != NOT_VISITED {
				continue
			}
			if !self._IsAdmissible(v) {
				continue
			}
			self.pred[v] = u
			self.queue.Push(v)
		}
	}
}

// FindConnections returns the non-dominated connections from any origin to
// any destination ordered by arrival time.
func (self *Router) FindConnections(from []StopOffset, to []StopOffset) List[Connection] {
	self._Reset()

	// latest departures first so every vertex is owned by the latest root reaching it
	roots := self._StopsVertices(from, -1)
	slices.SortFunc(roots, func(a, b _Candidate) int {
		if c := cmp.Compare(b.Time, a.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Vertex, b.Vertex)
	})
	for _, root := range roots {
		if self.pred[root.Vertex] != NOT_VISITED {
			continue
		}
		if !self._IsAdmissible(root.Vertex) {
			continue
		}
		self.root_time[root.Vertex] = root.Time
		self._Traverse(root.Vertex)
	}

	targets := self._StopsVertices(to, 1)
	slices.SortFunc(targets, func(a, b _Candidate) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Vertex, b.Vertex)
	})
	candidates := NewList[Connection](10)
	for _, target := range targets {
		p := self.pred[target.Vertex]
		if p == NOT_VISITED || p == STARTED_HERE {
			continue
		}
		// arrived earlier and kept waiting
		if self.graph.IsWaiting(p) && self.graph.GetStop(p) == self.graph.GetStop(target.Vertex) {
			continue
		}
		conn := self._Reconstruct(target)
		// walking only
		if conn.Segments.Length() == 0 {
			continue
		}
		candidates.Add(conn)
	}
	return _ParetoFront(candidates)
}

// _ParetoFront keeps the connections not dominated by a later or equal
// departure with an earlier or equal arrival, ordered by arrival time.
// Candidates are expected in target order, which decides ties.
func _ParetoFront(candidates List[Connection]) List[Connection] {
	slices.SortStableFunc(candidates, func(a, b Connection) int {
		if c := cmp.Compare(a.EndTime, b.EndTime); c != 0 {
			return c
		}
		return cmp.Compare(b.StartTime, a.StartTime)
	})
	connections := NewList[Connection](candidates.Length())
	max_start := int32(-1)
	for _, conn := range candidates {
		if conn.StartTime <= max_start {
			continue
		}
		max_start = conn.StartTime
		connections.Add(conn)
	}
	return connections
}

func (self *Router) _Reconstruct(target _Candidate) Connection {
	g := self.graph
	segments := NewList[Segment](4)
	root := int32(-1)
	u := self.pred[target.Vertex]
	for u >= 0 {
		if g.IsWaiting(u) {
			if self.pred[u] == STARTED_HERE {
				root = u
			}
			u = self.pred[u]
			continue
		}
		end := u
		service := g.GetService(end)
		start := end
		for {
			p := self.pred[start]
			if p < 0 {
				panic(fmt.Sprintf("path to vertex %d starts aboard vertex %d", target.Vertex, start))
			}
			if g.GetService(p) != service {
				break
			}
			start = p
		}
		if start != end {
			segments.Add(Segment{StartVertex: start, EndVertex: end})
		}
		u = self.pred[start]
	}
	segments.Reverse()
	end_time := structs.UnitsToSeconds(target.Time)
	// walk edges end at the target itself, alighting edges include the transfer time
	if p := self.pred[target.Vertex]; !g.IsWaiting(p) {
		end_time -= self.model.TransferTime
	}
	return Connection{
		StartTime: structs.UnitsToSeconds(self.root_time[root]),
		EndTime:   end_time,
		Segments:  segments,
	}
}
