package collision

import (
	"sort"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

// Proxy is a snapshot of one collider for a single detection pass.
type Proxy struct {
	Collider collider.Handle
	Body     body.Handle
	Shape    shape.Shape
	Pose     geom.Isometry
	Margin   float64
	Material collider.Material
	Dynamic  bool
	AABB     geom.AABB
}

// Pair indexes two proxies, I < J.
type Pair struct {
	I, J int
}

// FindPairs runs sweep-and-prune along x. Boxes are loosened by
// prediction before the overlap test. Pairs on the same body or between
// two non-dynamic bodies are skipped. The result is sorted by (I, J).
func FindPairs(proxies []Proxy, prediction float64) []Pair {
	n := len(proxies)
	if n < 2 {
		return nil
	}

	boxes := make([]geom.AABB, n)
	order := make([]int, n)
	for i := range proxies {
		boxes[i] = proxies[i].AABB.Loosened(prediction / 2)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return boxes[order[a]].Min[0] < boxes[order[b]].Min[0]
	})

	var pairs []Pair
	active := make([]int, 0, 16)
	for _, i := range order {
		minX := boxes[i].Min[0]

		kept := active[:0]
		for _, j := range active {
			if boxes[j].Max[0] >= minX {
				kept = append(kept, j)
			}
		}
		active = kept

		for _, j := range active {
			if !candidate(&proxies[i], &proxies[j]) || !boxes[i].Intersects(boxes[j]) {
				continue
			}
			if i < j {
				pairs = append(pairs, Pair{I: i, J: j})
			} else {
				pairs = append(pairs, Pair{I: j, J: i})
			}
		}
		active = append(active, i)
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}

func candidate(a, b *Proxy) bool {
	if a.Body == b.Body {
		return false
	}
	return a.Dynamic || b.Dynamic
}
