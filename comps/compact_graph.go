package comps

import (
	"encoding/binary"

	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
)

//*******************************************
// compact graph
//*******************************************

// CompactGraph stores V+1 packed vertex records followed by E successor
// entries. Fields are decoded on access so the backing memory can be a
// read-only mapping of the graph blob.
type CompactGraph struct {
	vertices []byte
	succ     []byte
	release  func() error
}

// NewCompactGraph packs vertices (including the sentinel) and successors.
func NewCompactGraph(vertices Array[structs.Vertex], succ Array[int32]) *CompactGraph {
	writer := NewBufferWriter()
	for _, vertex := range vertices {
		Write(writer, vertex.Pack())
	}
	vertex_bytes := writer.Len()
	WriteArray(writer, succ)
	data := writer.Bytes()
	return &CompactGraph{
		vertices: data[:vertex_bytes],
		succ:     data[vertex_bytes:],
	}
}

func _NewCompactGraphFromBlob(data []byte, vertex_count int, release func() error) *CompactGraph {
	vertex_bytes := (vertex_count + 1) * structs.VERTEX_SIZE
	return &CompactGraph{
		vertices: data[:vertex_bytes],
		succ:     data[vertex_bytes:],
		release:  release,
	}
}

func (self *CompactGraph) VertexCount() int {
	return len(self.vertices)/structs.VERTEX_SIZE - 1
}
func (self *CompactGraph) EdgeCount() int {
	return len(self.succ) / structs.SUCC_SIZE
}

func (self *CompactGraph) GetVertex(u int32) structs.Vertex {
	return structs.Vertex{
		Stop:      self.GetStop(u),
		Time:      self.GetTime(u),
		Service:   self.GetService(u),
		SuccStart: self._SuccStart(u),
	}
}
func (self *CompactGraph) GetStop(u int32) uint16 {
	return binary.LittleEndian.Uint16(self.vertices[int(u)*structs.VERTEX_SIZE:])
}
func (self *CompactGraph) GetTime(u int32) uint16 {
	return binary.LittleEndian.Uint16(self.vertices[int(u)*structs.VERTEX_SIZE+2:])
}
func (self *CompactGraph) GetService(u int32) structs.Service {
	return structs.ServiceFromPacked(binary.LittleEndian.Uint16(self.vertices[int(u)*structs.VERTEX_SIZE+4:]))
}
func (self *CompactGraph) IsWaiting(u int32) bool {
	return binary.LittleEndian.Uint16(self.vertices[int(u)*structs.VERTEX_SIZE+4:]) == structs.WAITING_SERVICE
}
func (self *CompactGraph) _SuccStart(u int32) int32 {
	return int32(binary.LittleEndian.Uint32(self.vertices[int(u)*structs.VERTEX_SIZE+6:]))
}

// GetSuccessorRange returns the half-open range of u's entries in the successor array.
func (self *CompactGraph) GetSuccessorRange(u int32) (int32, int32) {
	return self._SuccStart(u), self._SuccStart(u + 1)
}
func (self *CompactGraph) GetSuccessor(e int32) int32 {
	return int32(binary.LittleEndian.Uint32(self.succ[int(e)*structs.SUCC_SIZE:]))
}

func (self *CompactGraph) ForSuccessors(u int32, callback func(int32)) {
	start, end := self.GetSuccessorRange(u)
	for e := start; e < end; e++ {
		callback(self.GetSuccessor(e))
	}
}

// LastSuccessor is the successor added last to u.
func (self *CompactGraph) LastSuccessor(u int32) Optional[int32] {
	start, end := self.GetSuccessorRange(u)
	if start == end {
		return None[int32]()
	}
	return Some(self.GetSuccessor(end - 1))
}

// _Chunks returns the packed graph in on-disk order.
func (self *CompactGraph) _Chunks() [][]byte {
	return [][]byte{self.vertices, self.succ}
}

// Close releases the memory mapping backing a loaded graph.
func (self *CompactGraph) Close() error {
	if self.release == nil {
		return nil
	}
	release := self.release
	self.release = nil
	self.vertices = nil
	self.succ = nil
	return release()
}
