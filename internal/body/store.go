package body

import (
	"github.com/san-kum/rigid2d/internal/arena"
	"github.com/san-kum/rigid2d/internal/geom"
)

type Handle arena.Key

// Ground is the static body every store starts with. It cannot be removed.
var Ground = Handle{Index: 0, Generation: 1}

func (h Handle) String() string { return arena.Key(h).String() }

func (h Handle) IsGround() bool { return h == Ground }

type Store struct {
	bodies *arena.Arena[*RigidBody]
}

func NewStore() *Store {
	s := &Store{bodies: arena.New[*RigidBody]()}
	g := NewStatic(geom.Identity())
	g.Name = "ground"
	s.bodies.Insert(g)
	return s
}

func (s *Store) Insert(b *RigidBody) Handle {
	return Handle(s.bodies.Insert(b))
}

func (s *Store) Get(h Handle) (*RigidBody, bool) {
	return s.bodies.Get(arena.Key(h))
}

func (s *Store) Contains(h Handle) bool {
	return s.bodies.Contains(arena.Key(h))
}

func (s *Store) Remove(h Handle) bool {
	if h.IsGround() {
		return false
	}
	_, ok := s.bodies.Remove(arena.Key(h))
	return ok
}

// Len counts bodies other than ground.
func (s *Store) Len() int { return s.bodies.Len() - 1 }

func (s *Store) Each(fn func(Handle, *RigidBody) bool) {
	s.bodies.Each(func(k arena.Key, b *RigidBody) bool {
		return fn(Handle(k), b)
	})
}

// Handles lists every body except ground in ascending index order.
func (s *Store) Handles() []Handle {
	out := make([]Handle, 0, s.Len())
	s.Each(func(h Handle, _ *RigidBody) bool {
		if !h.IsGround() {
			out = append(out, h)
		}
		return true
	})
	return out
}
