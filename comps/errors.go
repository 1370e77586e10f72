package comps

import "errors"

var (
	// ErrModelNotFound is returned when no metadata blob exists at the model path.
	ErrModelNotFound = errors.New("model not found")
	// ErrCorruptModel marks a model that has to be rebuilt.
	ErrCorruptModel = errors.New("corrupt model")
)
