package collider

import (
	"github.com/san-kum/rigid2d/internal/arena"
	"github.com/san-kum/rigid2d/internal/body"
)

type Handle arena.Key

func (h Handle) String() string { return arena.Key(h).String() }

// Less orders handles by slot index, then generation.
func (h Handle) Less(o Handle) bool {
	if h.Index != o.Index {
		return h.Index < o.Index
	}
	return h.Generation < o.Generation
}

type Store struct {
	colliders *arena.Arena[*Collider]
	byBody    map[body.Handle][]Handle
}

func NewStore() *Store {
	return &Store{
		colliders: arena.New[*Collider](),
		byBody:    make(map[body.Handle][]Handle),
	}
}

func (s *Store) Insert(c *Collider) Handle {
	h := Handle(s.colliders.Insert(c))
	s.byBody[c.Body] = append(s.byBody[c.Body], h)
	return h
}

func (s *Store) Get(h Handle) (*Collider, bool) {
	return s.colliders.Get(arena.Key(h))
}

func (s *Store) Remove(h Handle) bool {
	c, ok := s.colliders.Remove(arena.Key(h))
	if !ok {
		return false
	}

	list := s.byBody[c.Body]
	for i, other := range list {
		if other == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.byBody, c.Body)
	} else {
		s.byBody[c.Body] = list
	}
	return true
}

// ByBody returns the colliders attached to b in insertion order.
func (s *Store) ByBody(b body.Handle) []Handle {
	list := s.byBody[b]
	out := make([]Handle, len(list))
	copy(out, list)
	return out
}

func (s *Store) Len() int { return s.colliders.Len() }

func (s *Store) Each(fn func(Handle, *Collider) bool) {
	s.colliders.Each(func(k arena.Key, c *Collider) bool {
		return fn(Handle(k), c)
	})
}
