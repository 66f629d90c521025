package joint

import (
	"github.com/san-kum/rigid2d/internal/arena"
	"github.com/san-kum/rigid2d/internal/body"
)

type Handle arena.Key

func (h Handle) String() string { return arena.Key(h).String() }

type Set struct {
	joints *arena.Arena[Joint]
}

func NewSet() *Set {
	return &Set{joints: arena.New[Joint]()}
}

func (s *Set) Add(j Joint) Handle {
	return Handle(s.joints.Insert(j))
}

func (s *Set) Get(h Handle) (Joint, bool) {
	return s.joints.Get(arena.Key(h))
}

func (s *Set) Remove(h Handle) bool {
	_, ok := s.joints.Remove(arena.Key(h))
	return ok
}

func (s *Set) Len() int { return s.joints.Len() }

func (s *Set) Each(fn func(Handle, Joint) bool) {
	s.joints.Each(func(k arena.Key, j Joint) bool {
		return fn(Handle(k), j)
	})
}

// RemoveAttachedTo removes every joint that uses body b.
func (s *Set) RemoveAttachedTo(b body.Handle) []Handle {
	var removed []Handle
	s.Each(func(h Handle, j Joint) bool {
		if b1, b2 := j.Bodies(); b1 == b || b2 == b {
			removed = append(removed, h)
		}
		return true
	})
	for _, h := range removed {
		s.Remove(h)
	}
	return removed
}

// RemoveBroken removes joints that broke during the last solve.
func (s *Set) RemoveBroken() []Handle {
	var broken []Handle
	s.Each(func(h Handle, j Joint) bool {
		if j.Broken() {
			broken = append(broken, h)
		}
		return true
	})
	for _, h := range broken {
		s.Remove(h)
	}
	return broken
}
