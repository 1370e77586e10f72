package comps

import (
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

const MODEL_VERSION = 1

//*******************************************
// model
//*******************************************

// Model owns the stops, calroutes, calendars and the time expanded graph.
// It is never mutated after construction and may be shared between routers.
type Model struct {
	Stops     Array[structs.Stop]
	CalRoutes Array[structs.CalRoute]
	Calendars Array[structs.Calendar]
	Graph     *CompactGraph
	// minimum buffer in seconds added to every alighting
	TransferTime int32

	stop_index Dict[string, int32]
}

func NewModel(stops Array[structs.Stop], calroutes Array[structs.CalRoute], calendars Array[structs.Calendar], graph *CompactGraph, transfer_time int32) *Model {
	return &Model{
		Stops:        stops,
		CalRoutes:    calroutes,
		Calendars:    calendars,
		Graph:        graph,
		TransferTime: transfer_time,
		stop_index:   _BuildStopIndex(stops),
	}
}

func _BuildStopIndex(stops Array[structs.Stop]) Dict[string, int32] {
	index := NewDict[string, int32](stops.Length())
	for i, stop := range stops {
		index[stop.ID] = int32(i)
	}
	return index
}

func (self *Model) StopCount() int {
	return self.Stops.Length()
}

func (self *Model) FindStop(id string) (int32, bool) {
	stop, ok := self.stop_index[id]
	return stop, ok
}

// GetCalendar returns the calendar id of a calroute.
func (self *Model) GetCalendar(calroute uint16) uint16 {
	return self.CalRoutes[calroute].Calendar
}

// StopVertices iterates the waiting vertices of a stop in time order by
// following the last successor of each waiting vertex.
func (self *Model) StopVertices(stop int32) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		first := self.Stops[stop].FirstVertex
		if !first.HasValue() {
			return
		}
		g := self.Graph
		u := first.Value
		for {
			if !yield(u) {
				return
			}
			last := g.LastSuccessor(u)
			if !last.HasValue() {
				return
			}
			v := last.Value
			if !g.IsWaiting(v) || g.GetStop(v) != g.GetStop(u) {
				return
			}
			if g.GetTime(v) <= g.GetTime(u) {
				panic(fmt.Sprintf("wait edge %d -> %d at stop %d does not advance in time", u, v, stop))
			}
			u = v
		}
	}
}

// SegmentInfo describes one vehicle ride.
type SegmentInfo struct {
	FromStop  int32  `json:"from_stop"`
	ToStop    int32  `json:"to_stop"`
	Departure int32  `json:"departure"`
	Arrival   int32  `json:"arrival"`
	Route     string `json:"route"`
}

func (self *Model) DescribeSegment(start, end int32) SegmentInfo {
	g := self.Graph
	info := SegmentInfo{
		FromStop:  int32(g.GetStop(start)),
		ToStop:    int32(g.GetStop(end)),
		Departure: structs.UnitsToSeconds(int32(g.GetTime(start))),
		Arrival:   structs.UnitsToSeconds(int32(g.GetTime(end))),
	}
	if calroute, ok := g.GetService(start).CalRoute(); ok {
		info.Route = self.CalRoutes[calroute].RouteShortName
	}
	return info
}

func (self *Model) Close() error {
	if self.Graph == nil {
		return nil
	}
	return self.Graph.Close()
}

//*******************************************
// load and store
//*******************************************

type ModelMeta struct {
	Version       int                     `json:"version"`
	Stops         Array[structs.Stop]     `json:"stops"`
	CalRoutes     Array[structs.CalRoute] `json:"calroutes"`
	Calendars     Array[structs.Calendar] `json:"calendars"`
	TransferTime  int32                   `json:"transfer_time"`
	NVertices     int32                   `json:"n_vertices"`
	NEdges        int32                   `json:"n_edges"`
	GraphChecksum uint64                  `json:"graph_checksum"`
}

type LoadOptions struct {
	Mmap           bool
	VerifyChecksum bool
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Mmap:           true,
		VerifyChecksum: true,
	}
}

func GraphPath(path string) string {
	return path + ".graph"
}

// Save writes the graph and the metadata to temporary files and then
// replaces the live files, graph first.
func (self *Model) Save(path string) error {
	return Store(self, path)
}

func (self *Model) _Store(path string) error {
	graph_path := GraphPath(path)
	chunks := self.Graph._Chunks()
	hash := xxhash.New()
	for _, chunk := range chunks {
		hash.Write(chunk)
	}
	meta := ModelMeta{
		Version:       MODEL_VERSION,
		Stops:         self.Stops,
		CalRoutes:     self.CalRoutes,
		Calendars:     self.Calendars,
		TransferTime:  self.TransferTime,
		NVertices:     int32(self.Graph.VertexCount()),
		NEdges:        int32(self.Graph.EdgeCount()),
		GraphChecksum: hash.Sum64(),
	}
	if err := WriteBytesToFile(graph_path+".tmp", chunks...); err != nil {
		return fmt.Errorf("failed to write graph blob: %w", err)
	}
	if err := WriteJSONToFile(meta, path+".tmp"); err != nil {
		return fmt.Errorf("failed to write model metadata: %w", err)
	}
	if err := ReplaceFile(graph_path+".tmp", graph_path); err != nil {
		return err
	}
	if err := ReplaceFile(path+".tmp", path); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("stored model with %v vertices and %v edges to %v", meta.NVertices, meta.NEdges, path))
	return nil
}

func (self *Model) _New() *Model {
	return &Model{}
}
func (self *Model) _Load(path string) error {
	model, err := LoadModel(path, DefaultLoadOptions())
	if err != nil {
		return err
	}
	*self = *model
	return nil
}
func (self *Model) _Remove(path string) error {
	return errors.Join(_RemoveIfExists(path), _RemoveIfExists(GraphPath(path)))
}

func _RemoveIfExists(file string) error {
	err := os.Remove(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadModel reads the metadata at path and maps the graph blob next to it.
func LoadModel(path string, options LoadOptions) (*Model, error) {
	meta, err := ReadJSONFromFile[ModelMeta](path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable metadata: %v", ErrCorruptModel, err)
	}
	if meta.Version != MODEL_VERSION {
		return nil, fmt.Errorf("%w: unsupported version %v", ErrCorruptModel, meta.Version)
	}
	if meta.NVertices < 0 || meta.NEdges < 0 {
		return nil, fmt.Errorf("%w: negative graph size", ErrCorruptModel)
	}

	graph_path := GraphPath(path)
	info, err := os.Stat(graph_path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: graph blob %v is missing", ErrCorruptModel, graph_path)
	}
	if err != nil {
		return nil, err
	}
	size := (int(meta.NVertices)+1)*structs.VERTEX_SIZE + int(meta.NEdges)*structs.SUCC_SIZE
	if info.Size() != int64(size) {
		return nil, fmt.Errorf("%w: graph blob has %v bytes, expected %v", ErrCorruptModel, info.Size(), size)
	}

	var data []byte
	var release func() error
	if options.Mmap {
		data, release, err = _MapFile(graph_path, size)
	} else {
		data, err = os.ReadFile(graph_path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read graph blob: %w", err)
	}
	graph := _NewCompactGraphFromBlob(data, int(meta.NVertices), release)

	if options.VerifyChecksum && xxhash.Sum64(data) != meta.GraphChecksum {
		graph.Close()
		return nil, fmt.Errorf("%w: graph checksum mismatch", ErrCorruptModel)
	}
	if graph._SuccStart(meta.NVertices) != meta.NEdges {
		graph.Close()
		return nil, fmt.Errorf("%w: sentinel vertex does not close the successor array", ErrCorruptModel)
	}
	if err := _CheckReferences(&meta, graph); err != nil {
		graph.Close()
		return nil, err
	}

	slog.Info(fmt.Sprintf("loaded model with %v stops, %v vertices and %v edges", meta.Stops.Length(), meta.NVertices, meta.NEdges))
	return NewModel(meta.Stops, meta.CalRoutes, meta.Calendars, graph, meta.TransferTime), nil
}

// _CheckReferences verifies that every index stored in the metadata or the
// graph points into its target array.
func _CheckReferences(meta *ModelMeta, graph *CompactGraph) error {
	if meta.Stops.Length() > structs.MAX_STOPS || meta.CalRoutes.Length() > structs.MAX_CALROUTES {
		return fmt.Errorf("%w: too many stops or calroutes", ErrCorruptModel)
	}
	n := meta.NVertices
	for i, stop := range meta.Stops {
		if stop.FirstVertex.HasValue() && (stop.FirstVertex.Value < 0 || stop.FirstVertex.Value >= n) {
			return fmt.Errorf("%w: stop %d starts at unknown vertex %d", ErrCorruptModel, i, stop.FirstVertex.Value)
		}
	}
	for i, calroute := range meta.CalRoutes {
		if int(calroute.Calendar) >= meta.Calendars.Length() {
			return fmt.Errorf("%w: calroute %d references unknown calendar %d", ErrCorruptModel, i, calroute.Calendar)
		}
	}
	for u := int32(0); u < n; u++ {
		if int(graph.GetStop(u)) >= meta.Stops.Length() {
			return fmt.Errorf("%w: vertex %d references unknown stop %d", ErrCorruptModel, u, graph.GetStop(u))
		}
		if calroute, ok := graph.GetService(u).CalRoute(); ok && int(calroute) >= meta.CalRoutes.Length() {
			return fmt.Errorf("%w: vertex %d references unknown calroute %d", ErrCorruptModel, u, calroute)
		}
		start, end := graph.GetSuccessorRange(u)
		if start < 0 || start > end || end > meta.NEdges {
			return fmt.Errorf("%w: vertex %d has successor range [%d, %d)", ErrCorruptModel, u, start, end)
		}
		for e := start; e < end; e++ {
			if v := graph.GetSuccessor(e); v < 0 || v >= n {
				return fmt.Errorf("%w: vertex %d has unknown successor %d", ErrCorruptModel, u, v)
			}
		}
	}
	return nil
}
