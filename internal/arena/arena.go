// Package arena provides a generational slot store.
//
// Each inserted value gets a [Key] made of a slot index and a generation.
// Removing a value bumps the generation of its slot, so keys held after a
// removal never resolve to whatever later reuses the slot.
package arena

import "fmt"

type Key struct {
	Index      uint32
	Generation uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%d.%d", k.Index, k.Generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	alive      bool
}

type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

func (a *Arena[T]) Insert(v T) Key {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.alive = true
		a.count++
		return Key{Index: idx, Generation: s.generation}
	}

	a.slots = append(a.slots, slot[T]{value: v, generation: 1, alive: true})
	a.count++
	return Key{Index: uint32(len(a.slots) - 1), Generation: 1}
}

func (a *Arena[T]) Get(k Key) (T, bool) {
	var zero T
	if int(k.Index) >= len(a.slots) {
		return zero, false
	}
	s := a.slots[k.Index]
	if !s.alive || s.generation != k.Generation {
		return zero, false
	}
	return s.value, true
}

func (a *Arena[T]) Contains(k Key) bool {
	_, ok := a.Get(k)
	return ok
}

func (a *Arena[T]) Remove(k Key) (T, bool) {
	var zero T
	v, ok := a.Get(k)
	if !ok {
		return zero, false
	}

	s := &a.slots[k.Index]
	s.value = zero
	s.alive = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	a.free = append(a.free, k.Index)
	a.count--
	return v, true
}

func (a *Arena[T]) Len() int { return a.count }

// Each visits live values in ascending slot order. Returning false stops the walk.
func (a *Arena[T]) Each(fn func(Key, T) bool) {
	for i := range a.slots {
		s := a.slots[i]
		if !s.alive {
			continue
		}
		if !fn(Key{Index: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}

func (a *Arena[T]) Keys() []Key {
	keys := make([]Key, 0, a.count)
	a.Each(func(k Key, _ T) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
