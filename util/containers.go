package util

import (
	"encoding/json"
)

//*******************************************
// array
//*******************************************

type Array[T any] []T

func NewArray[T any](size int) Array[T] {
	return make([]T, size)
}

func (self Array[T]) Length() int {
	return len(self)
}
func (self Array[T]) Get(index int) T {
	return self[index]
}
func (self Array[T]) Set(index int, value T) {
	self[index] = value
}

//*******************************************
// list
//*******************************************

type List[T any] []T

func NewList[T any](capacity int) List[T] {
	return make([]T, 0, capacity)
}

func (self *List[T]) Add(value T) {
	*self = append(*self, value)
}
func (self List[T]) Length() int {
	return len(self)
}
func (self List[T]) Get(index int) T {
	return self[index]
}
func (self List[T]) Set(index int, value T) {
	self[index] = value
}

// reverses the list in place
func (self List[T]) Reverse() {
	for i, j := 0, len(self)-1; i < j; i, j = i+1, j-1 {
		self[i], self[j] = self[j], self[i]
	}
}

//*******************************************
// dict
//*******************************************

type Dict[K comparable, V any] map[K]V

func NewDict[K comparable, V any](capacity int) Dict[K, V] {
	return make(map[K]V, capacity)
}

func (self Dict[K, V]) ContainsKey(key K) bool {
	_, ok := self[key]
	return ok
}
func (self Dict[K, V]) Get(key K) V {
	return self[key]
}
func (self Dict[K, V]) Set(key K, value V) {
	self[key] = value
}
func (self Dict[K, V]) Length() int {
	return len(self)
}

//*******************************************
// optional
//*******************************************

type Optional[T any] struct {
	Value T
	ok    bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, ok: true}
}
func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (self Optional[T]) HasValue() bool {
	return self.ok
}

func (self Optional[T]) MarshalJSON() ([]byte, error) {
	if !self.ok {
		return []byte("null"), nil
	}
	return json.Marshal(self.Value)
}
func (self *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*self = None[T]()
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*self = Some(value)
	return nil
}

//*******************************************
// tuples
//*******************************************

type Tuple[A any, B any] struct {
	A A
	B B
}

func MakeTuple[A any, B any](a A, b B) Tuple[A, B] {
	return Tuple[A, B]{A: a, B: b}
}

type Triple[A any, B any, C any] struct {
	A A
	B B
	C C
}

func MakeTriple[A any, B any, C any](a A, b B, c C) Triple[A, B, C] {
	return Triple[A, B, C]{A: a, B: b, C: c}
}

//*******************************************
// queue
//*******************************************

// FIFO queue backed by a slice with a moving head.
type Queue[T any] struct {
	items List[T]
	head  int
}

func NewQueue[T any](capacity int) Queue[T] {
	return Queue[T]{
		items: NewList[T](capacity),
	}
}

func (self *Queue[T]) Push(value T) {
	self.items.Add(value)
}
func (self *Queue[T]) Pop() (T, bool) {
	if self.head >= len(self.items) {
		var t T
		return t, false
	}
	value := self.items[self.head]
	self.head += 1
	return value, true
}
func (self *Queue[T]) Size() int {
	return len(self.items) - self.head
}

// Clear empties the queue but keeps the allocated buffer.
func (self *Queue[T]) Clear() {
	self.items = self.items[:0]
	self.head = 0
}
