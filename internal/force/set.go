package force

import (
	"github.com/san-kum/rigid2d/internal/arena"
	"github.com/san-kum/rigid2d/internal/body"
)

type Handle arena.Key

func (h Handle) String() string { return arena.Key(h).String() }

type Set struct {
	generators *arena.Arena[Generator]
}

func NewSet() *Set {
	return &Set{generators: arena.New[Generator]()}
}

func (s *Set) Add(g Generator) Handle {
	return Handle(s.generators.Insert(g))
}

func (s *Set) Get(h Handle) (Generator, bool) {
	return s.generators.Get(arena.Key(h))
}

func (s *Set) Remove(h Handle) bool {
	_, ok := s.generators.Remove(arena.Key(h))
	return ok
}

func (s *Set) Len() int { return s.generators.Len() }

func (s *Set) Each(fn func(Handle, Generator) bool) {
	s.generators.Each(func(k arena.Key, g Generator) bool {
		return fn(Handle(k), g)
	})
}

// ApplyAll runs every generator in handle order and removes the ones that
// report they are done. The removed handles are returned.
func (s *Set) ApplyAll(dt float64, bodies *body.Store) []Handle {
	var expired []Handle
	s.Each(func(h Handle, g Generator) bool {
		if !g.Apply(dt, bodies) {
			expired = append(expired, h)
		}
		return true
	})
	for _, h := range expired {
		s.Remove(h)
	}
	return expired
}

// RemoveAttachedTo removes every generator bound to body b.
func (s *Set) RemoveAttachedTo(b body.Handle) []Handle {
	var removed []Handle
	s.Each(func(h Handle, g Generator) bool {
		if a, ok := g.(Attached); ok && a.AttachedTo(b) {
			removed = append(removed, h)
		}
		return true
	})
	for _, h := range removed {
		s.Remove(h)
	}
	return removed
}

func (s *Set) PotentialEnergy(bodies *body.Store) float64 {
	total := 0.0
	s.Each(func(_ Handle, g Generator) bool {
		if p, ok := g.(Potential); ok {
			total += p.PotentialEnergy(bodies)
		}
		return true
	})
	return total
}
