package component

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

type ComponentID uint32

// ComponentKind identifies one component type in a World. The zero value is
// invalid.
type ComponentKind[T any] struct {
	id ComponentID
}

var (
	registryMu sync.Mutex
	names      = []string{""}
)

// NewComponentKind registers a kind under a diagnostic name. Names need not
// be unique; IDs always are.
func NewComponentKind[T any](name string) ComponentKind[T] {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" {
		var zero T
		name = fmt.Sprintf("%T", zero)
	}
	names = append(names, name)
	return ComponentKind[T]{id: ComponentID(len(names) - 1)}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

func (k ComponentKind[T]) Name() string {
	return Name(k.id)
}

// Name returns the registered name for id, or "" for an unknown id.
func Name(id ComponentID) string {
	registryMu.Lock()
	defer registryMu.Unlock()
	if int(id) >= len(names) {
		return ""
	}
	return names[id]
}

// ComponentHandle is what component files export, e.g. PositionComponent.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any](name string) ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T](name)}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
