package preproc

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/ttpr0/go-transit/comps"
	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/parser"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

var (
	ErrBuildPhase    = errors.New("operation not allowed in current build phase")
	ErrModelTooLarge = errors.New("model exceeds packed limits")
	ErrTimeOverflow  = errors.New("time exceeds packed range")
)

//*******************************************
// build options
//*******************************************

type BuildOptions struct {
	// seconds added to every alighting
	TransferTime int32
	// maximum manhattan distance of walks between stops in metres
	MaxWalkDistance float64
	// walking speed in km/h
	WalkSpeed float64
	WalkEdges bool
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		TransferTime:    structs.DEFAULT_TRANSFER_TIME,
		MaxWalkDistance: 250,
		WalkSpeed:       4.5,
		WalkEdges:       true,
	}
}

//*******************************************
// model builder
//*******************************************

type _BuildPhase byte

const (
	_PHASE_TRIPS _BuildPhase = iota
	_PHASE_WALKS
	_PHASE_DONE
)

// ModelBuilder builds the time expanded graph of a timetable. Trips are
// added first, walk edges at most once afterwards and Finalize adds the wait
// edges and packs the model. Calls out of this order fail with ErrBuildPhase.
type ModelBuilder struct {
	timetable *parser.Timetable
	options   BuildOptions
	phase     _BuildPhase

	vertices   List[structs.Vertex]
	vertex_ids Dict[structs.VertexKey, int32]
	edges      List[Tuple[int32, int32]]

	calroutes    List[structs.CalRoute]
	calroute_ids Dict[Tuple[int32, int32], uint16]

	// waiting event times per stop, sorted and unique once trips are done
	event_times Array[List[uint16]]
	sorted      bool
}

func NewModelBuilder(timetable *parser.Timetable, options BuildOptions) (*ModelBuilder, error) {
	if timetable.Stops.Length() > structs.MAX_STOPS {
		return nil, fmt.Errorf("%w: %v stops", ErrModelTooLarge, timetable.Stops.Length())
	}
	if timetable.Calendars.Length() > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %v calendars", ErrModelTooLarge, timetable.Calendars.Length())
	}
	return &ModelBuilder{
		timetable:    timetable,
		options:      options,
		phase:        _PHASE_TRIPS,
		vertices:     NewList[structs.Vertex](1000),
		vertex_ids:   NewDict[structs.VertexKey, int32](1000),
		edges:        NewList[Tuple[int32, int32]](1000),
		calroutes:    NewList[structs.CalRoute](100),
		calroute_ids: NewDict[Tuple[int32, int32], uint16](100),
		event_times:  NewArray[List[uint16]](timetable.Stops.Length()),
	}, nil
}

func (self *ModelBuilder) _GetVertex(stop int32, tm int32, service structs.Service) (int32, error) {
	if tm < 0 || tm > structs.MAX_TIME {
		return -1, fmt.Errorf("%w: %v at stop %v", ErrTimeOverflow, structs.UnitsToSeconds(tm), self.timetable.Stops[stop].ID)
	}
	key := structs.VertexKey{Stop: uint16(stop), Time: uint16(tm), Service: service}
	if id, ok := self.vertex_ids[key]; ok {
		return id, nil
	}
	id := int32(self.vertices.Length())
	self.vertices.Add(structs.Vertex{Stop: key.Stop, Time: key.Time, Service: service})
	self.vertex_ids[key] = id
	return id, nil
}

func (self *ModelBuilder) _GetCalRoute(trip *parser.Trip) (uint16, error) {
	key := MakeTuple(trip.Calendar, trip.Route)
	if id, ok := self.calroute_ids[key]; ok {
		return id, nil
	}
	// the packed value 0xFFFF marks waiting vertices
	if self.calroutes.Length() >= structs.MAX_CALROUTES {
		return 0, fmt.Errorf("%w: more than %v calroutes", ErrModelTooLarge, structs.MAX_CALROUTES)
	}
	id := uint16(self.calroutes.Length())
	self.calroutes.Add(structs.CalRoute{
		RouteShortName: self.timetable.Routes[trip.Route].ShortName,
		Calendar:       uint16(trip.Calendar),
	})
	self.calroute_ids[key] = id
	return id, nil
}

func (self *ModelBuilder) _AddEdge(stop_a int32, time_a int32, service_a structs.Service, stop_b int32, time_b int32, service_b structs.Service) error {
	u, err := self._GetVertex(stop_a, time_a, service_a)
	if err != nil {
		return err
	}
	v, err := self._GetVertex(stop_b, time_b, service_b)
	if err != nil {
		return err
	}
	self.edges.Add(MakeTuple(u, v))
	return nil
}

func (self *ModelBuilder) _AddEvent(stop int32, tm int32) {
	times := self.event_times[stop]
	times.Add(uint16(tm))
	self.event_times[stop] = times
}

// AddTrip adds boarding, alighting, stay-in-vehicle and travel edges of a trip.
func (self *ModelBuilder) AddTrip(index int) error {
	if self.phase != _PHASE_TRIPS {
		return fmt.Errorf("%w: trips must be added before walk edges and finalization", ErrBuildPhase)
	}
	trip := &self.timetable.Trips[index]
	calroute, err := self._GetCalRoute(trip)
	if err != nil {
		return err
	}
	aboard := structs.Aboard(calroute)
	waiting := structs.Waiting()
	transfer := structs.SecondsToUnitsCeil(self.options.TransferTime)

	for _, st := range trip.StopTimes {
		arr := structs.SecondsToUnits(st.Arrival)
		dep := structs.SecondsToUnits(st.Departure)
		// boarding
		if err := self._AddEdge(st.Stop, dep, waiting, st.Stop, dep, aboard); err != nil {
			return err
		}
		// alighting
		if err := self._AddEdge(st.Stop, arr, aboard, st.Stop, arr+transfer, waiting); err != nil {
			return err
		}
		// stay in vehicle
		if arr != dep {
			if err := self._AddEdge(st.Stop, arr, aboard, st.Stop, dep, aboard); err != nil {
				return err
			}
		}
		self._AddEvent(st.Stop, dep)
		self._AddEvent(st.Stop, arr+transfer)
	}
	for i := 1; i < trip.StopTimes.Length(); i++ {
		from := trip.StopTimes[i-1]
		to := trip.StopTimes[i]
		// travel
		err := self._AddEdge(from.Stop, structs.SecondsToUnits(from.Departure), aboard, to.Stop, structs.SecondsToUnits(to.Arrival), aboard)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *ModelBuilder) _SortEventTimes() {
	if self.sorted {
		return
	}
	for i, times := range self.event_times {
		slices.Sort(times)
		self.event_times[i] = slices.Compact(times)
	}
	self.sorted = true
}

// AddWalkEdges connects every event at a stop with the first reachable event
// at each stop within walking distance. It may be called once, after all trips.
func (self *ModelBuilder) AddWalkEdges() error {
	if self.phase != _PHASE_TRIPS {
		return fmt.Errorf("%w: walk edges can only be added once before finalization", ErrBuildPhase)
	}
	self.phase = _PHASE_WALKS
	self._SortEventTimes()
	if self.options.MaxWalkDistance <= 0 || self.options.WalkSpeed <= 0 {
		return nil
	}

	stops := self.timetable.Stops
	coords := NewList[geo.Coord](stops.Length())
	for _, stop := range stops {
		if stop.Loc.HasValue() {
			coords.Add(stop.Loc.Value)
		}
	}
	proj := geo.NewProjectionFor(coords)
	finder := NewClosePointFinder[int32](self.options.MaxWalkDistance)
	for i, stop := range stops {
		if !stop.Loc.HasValue() || self.event_times[i].Length() == 0 {
			continue
		}
		p := proj.Project(stop.Loc.Value)
		finder.Add(p[0], p[1], int32(i))
	}

	speed := self.options.WalkSpeed / 3.6
	waiting := structs.Waiting()
	count := 0
	var err error
	finder.ForClosePairs(func(a, b int32, dist float64) {
		if err != nil {
			return
		}
		walk := int32(math.Round(dist / speed / structs.TIME_GRANULARITY))
		targets := self.event_times[b]
		for _, tm := range self.event_times[a] {
			arrival := int32(tm) + walk
			idx := sort.Search(targets.Length(), func(i int) bool {
				return int32(targets[i]) >= arrival
			})
			if idx >= targets.Length() {
				break
			}
			err = self._AddEdge(a, int32(tm), waiting, b, int32(targets[idx]), waiting)
			if err != nil {
				return
			}
			count += 1
		}
	})
	if err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("added %v walk edges between %v located stops", count, finder.PointCount()))
	return nil
}

// Finalize adds the wait edges and packs the model. The builder can not be
// used afterwards.
func (self *ModelBuilder) Finalize() (*comps.Model, error) {
	if self.phase == _PHASE_DONE {
		return nil, fmt.Errorf("%w: model already finalized", ErrBuildPhase)
	}
	self.phase = _PHASE_DONE
	self._SortEventTimes()

	// wait edges go last so they end every successor list they are part of
	waiting := structs.Waiting()
	for i, times := range self.event_times {
		for j := 1; j < times.Length(); j++ {
			if err := self._AddEdge(int32(i), int32(times[j-1]), waiting, int32(i), int32(times[j]), waiting); err != nil {
				return nil, err
			}
		}
	}
	if self.edges.Length() > math.MaxInt32 || self.vertices.Length() >= math.MaxInt32 {
		return nil, fmt.Errorf("%w: %v vertices, %v edges", ErrModelTooLarge, self.vertices.Length(), self.edges.Length())
	}

	graph := self._BuildCompactGraph()

	stops := NewArray[structs.Stop](self.timetable.Stops.Length())
	for i, stop := range self.timetable.Stops {
		first := None[int32]()
		if times := self.event_times[i]; times.Length() > 0 {
			first = Some(self.vertex_ids[structs.VertexKey{Stop: uint16(i), Time: times[0], Service: waiting}])
		}
		stops[i] = structs.Stop{
			ID:          stop.ID,
			Name:        stop.Name,
			Loc:         stop.Loc,
			FirstVertex: first,
		}
	}
	calendars := NewArray[structs.Calendar](self.timetable.Calendars.Length())
	for i, cal := range self.timetable.Calendars {
		pattern := cal.Pattern
		pattern.Excludes = slices.Clone(pattern.Excludes)
		pattern.Includes = slices.Clone(pattern.Includes)
		pattern.Normalize()
		calendars[i] = pattern
	}

	return comps.NewModel(stops, Array[structs.CalRoute](self.calroutes), calendars, graph, self.options.TransferTime), nil
}

// _BuildCompactGraph groups the edges by source vertex keeping their insertion order.
func (self *ModelBuilder) _BuildCompactGraph() *comps.CompactGraph {
	vertex_count := self.vertices.Length()
	vertices := NewArray[structs.Vertex](vertex_count + 1)
	copy(vertices, self.vertices)

	for _, edge := range self.edges {
		vertices[edge.A].SuccStart += 1
	}
	start := int32(0)
	for i := 0; i < vertex_count; i++ {
		count := vertices[i].SuccStart
		vertices[i].SuccStart = start
		start += count
	}
	vertices[vertex_count] = structs.Vertex{
		Stop:      math.MaxUint16,
		Time:      math.MaxUint16,
		Service:   structs.Waiting(),
		SuccStart: start,
	}

	succ := NewArray[int32](self.edges.Length())
	fill := NewArray[int32](vertex_count)
	for _, edge := range self.edges {
		u := edge.A
		succ[vertices[u].SuccStart+fill[u]] = edge.B
		fill[u] += 1
	}
	return comps.NewCompactGraph(vertices, succ)
}

//*******************************************
// build model
//*******************************************

// BuildModel runs all build phases on a timetable.
func BuildModel(timetable *parser.Timetable, options BuildOptions) (*comps.Model, error) {
	if err := timetable.Validate(); err != nil {
		return nil, err
	}
	builder, err := NewModelBuilder(timetable, options)
	if err != nil {
		return nil, err
	}

	t := time.Now()
	for i := 0; i < timetable.Trips.Length(); i++ {
		if err := builder.AddTrip(i); err != nil {
			return nil, err
		}
	}
	slog.Info(fmt.Sprintf("added %v trips in %v", timetable.Trips.Length(), time.Since(t)))

	if options.WalkEdges {
		t = time.Now()
		if err := builder.AddWalkEdges(); err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("added walk edges in %v", time.Since(t)))
	}

	t = time.Now()
	model, err := builder.Finalize()
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("finalized model with %v vertices and %v edges in %v", model.Graph.VertexCount(), model.Graph.EdgeCount(), time.Since(t)))
	return model, nil
}
