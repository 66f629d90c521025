package collision

import (
	"sort"

	"github.com/san-kum/rigid2d/internal/collider"
)

type PairKey struct {
	A, B collider.Handle
}

func (m *Manifold) Key() PairKey { return PairKey{A: m.A, B: m.B} }

type Event struct {
	A, B    collider.Handle
	Started bool
}

// Diff compares the touching pairs of the previous step with the current
// manifolds. It returns started events followed by stopped events, each
// sorted by collider handles, and the new touching set.
func Diff(prev map[PairKey]struct{}, manifolds []Manifold) ([]Event, map[PairKey]struct{}) {
	curr := make(map[PairKey]struct{}, len(manifolds))
	var events []Event

	for i := range manifolds {
		m := &manifolds[i]
		if !m.Touching() {
			continue
		}
		k := m.Key()
		curr[k] = struct{}{}
		if _, ok := prev[k]; !ok {
			events = append(events, Event{A: k.A, B: k.B, Started: true})
		}
	}

	var stopped []Event
	for k := range prev {
		if _, ok := curr[k]; !ok {
			stopped = append(stopped, Event{A: k.A, B: k.B})
		}
	}
	sort.Slice(stopped, func(i, j int) bool {
		if stopped[i].A != stopped[j].A {
			return stopped[i].A.Less(stopped[j].A)
		}
		return stopped[i].B.Less(stopped[j].B)
	})

	return append(events, stopped...), curr
}
