package scene

import (
	"fmt"
	"math"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/force"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/joint"
	"github.com/san-kum/rigid2d/internal/shape"
	"github.com/san-kum/rigid2d/internal/world"
)

const colliderMargin = 0.04

func withDefaults(gravity geom.Vec2, opts []world.Option) []world.Option {
	return append([]world.Option{world.WithGravity(gravity)}, opts...)
}

// SpringGrid is a num×num grid of small balls, each tied to a common
// ground point by a zero-length spring, with every other consecutive pair
// joined by a revolute joint.
func SpringGrid(p Params, opts ...world.Option) (*world.World, error) {
	num := p.Int("num", 12)
	rad := p.Get("radius", 0.1)
	margin := p.Get("margin", colliderMargin)
	stiffness := p.Get("stiffness", 0.006)
	if num < 1 {
		return nil, fmt.Errorf("spring_grid: num must be positive, got %d", num)
	}

	w := world.New(withDefaults(geom.Vec2{}, opts)...)
	material := collider.DefaultMaterial()

	if p.Get("ground", 0) != 0 {
		const groundRadius = 50.0
		ground, err := shape.NewCuboid(geom.V(groundRadius-margin, groundRadius-margin))
		if err != nil {
			return nil, err
		}
		pose := geom.NewIsometry(geom.V(0, -groundRadius), 0)
		if _, err := w.AddCollider(margin, ground, body.Ground, pose, material); err != nil {
			return nil, err
		}
	}

	shift := rad*2 + 0.002
	centerx := shift * float64(num) / 2
	centery := shift / 2

	ball, err := shape.NewBall(rad - margin)
	if err != nil {
		return nil, fmt.Errorf("spring_grid: %w", err)
	}
	inertia := ball.Inertia(1)
	com := ball.CenterOfMass()

	handles := make([]body.Handle, 0, num*num)
	for i := 0; i < num; i++ {
		for j := 0; j < num; j++ {
			x := float64(i)*shift - centerx
			y := float64(j)*shift + centery

			h := w.AddRigidBody(geom.NewIsometry(geom.V(x, y), 0), inertia, com)
			handles = append(handles, h)

			w.AddForceGenerator(force.NewSpring(body.Ground, h, geom.V(centerx, centery), geom.Vec2{}, 0, stiffness))

			if _, err := w.AddCollider(margin, ball, h, geom.Identity(), material); err != nil {
				return nil, err
			}
		}
	}

	for i := 0; i+1 < len(handles); i += 2 {
		j := joint.NewRevolute(handles[i], handles[i+1], geom.Vec2{}, geom.V(-rad*4, 0))
		if _, err := w.AddConstraint(j); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// PendulumChain hangs a chain of boxes from a ground pivot. The chain
// starts horizontal.
func PendulumChain(p Params, opts ...world.Option) (*world.World, error) {
	links := p.Int("links", 5)
	length := p.Get("link_length", 0.5)
	if links < 1 || !(length > 0.1) {
		return nil, fmt.Errorf("pendulum_chain: need at least one link longer than 0.1, got %d of %v", links, length)
	}

	w := world.New(withDefaults(geom.V(0, -9.81), opts)...)

	// links are shortened so neighbours do not touch at the pivots
	box, err := shape.NewCuboid(geom.V(length/2-0.03, length/10))
	if err != nil {
		return nil, err
	}

	prev := body.Ground
	prevAnchor := geom.Vec2{}
	for i := 0; i < links; i++ {
		x := length/2 + float64(i)*length
		h := w.AddRigidBody(geom.NewIsometry(geom.V(x, 0), 0), box.Inertia(1), box.CenterOfMass())
		if _, err := w.AddCollider(0.01, box, h, geom.Identity(), collider.DefaultMaterial()); err != nil {
			return nil, err
		}

		j := joint.NewRevolute(prev, h, prevAnchor, geom.V(-length/2, 0))
		if bi := p.Get("breaking_impulse", 0); bi > 0 {
			j.BreakingImpulse = bi
		}
		if _, err := w.AddConstraint(j); err != nil {
			return nil, err
		}
		prev, prevAnchor = h, geom.V(length/2, 0)
	}

	return w, nil
}

// Pyramid stacks boxes on a static floor.
func Pyramid(p Params, opts ...world.Option) (*world.World, error) {
	rows := p.Int("rows", 6)
	half := p.Get("half_extent", 0.5)
	if rows < 1 || !(half > 0) {
		return nil, fmt.Errorf("pyramid: need at least one row of positive size")
	}

	w := world.New(withDefaults(geom.V(0, -9.81), opts)...)

	floor, err := shape.NewCuboid(geom.V(50, 0.99))
	if err != nil {
		return nil, err
	}
	if _, err := w.AddCollider(0.01, floor, body.Ground, geom.NewIsometry(geom.V(0, -1), 0), collider.DefaultMaterial()); err != nil {
		return nil, err
	}

	box, err := shape.NewCuboid(geom.V(half-0.01, half-0.01))
	if err != nil {
		return nil, err
	}
	size := 2 * half
	for row := 0; row < rows; row++ {
		count := rows - row
		y := half + float64(row)*size
		x0 := -float64(count-1) * half
		for k := 0; k < count; k++ {
			pose := geom.NewIsometry(geom.V(x0+float64(k)*size, y), 0)
			h := w.AddRigidBody(pose, box.Inertia(1), box.CenterOfMass())
			if _, err := w.AddCollider(0.01, box, h, geom.Identity(), collider.DefaultMaterial()); err != nil {
				return nil, err
			}
		}
	}

	return w, nil
}

// Cradle is a Newton's cradle: elastic frictionless balls hanging from
// revolute joints, with the first balls pulled aside.
func Cradle(p Params, opts ...world.Option) (*world.World, error) {
	balls := p.Int("balls", 5)
	pulled := p.Int("pulled", 1)
	rad := p.Get("radius", 0.25)
	length := p.Get("length", 2)
	gap := p.Get("gap", 0.01)
	if balls < 1 || pulled < 0 || pulled > balls {
		return nil, fmt.Errorf("cradle: invalid ball counts %d/%d", balls, pulled)
	}
	if gap < 0 {
		return nil, fmt.Errorf("cradle: gap must not be negative, got %v", gap)
	}

	w := world.New(withDefaults(geom.V(0, -9.81), opts)...)
	material := collider.Material{Restitution: 1, Friction: 0}

	ball, err := shape.NewBall(rad)
	if err != nil {
		return nil, err
	}

	// Balls hang apart by more than the prediction distance so each impact
	// is resolved as its own pair, one step after the previous one.
	spacing := 2*rad + gap
	swing := math.Pi / 4
	for i := 0; i < balls; i++ {
		pivot := geom.V(float64(i)*spacing, length)
		pos := geom.V(pivot[0], 0)
		if i < pulled {
			pos = pivot.Add(geom.V(-math.Sin(swing)*length, -math.Cos(swing)*length))
		}

		h := w.AddRigidBody(geom.NewIsometry(pos, 0), ball.Inertia(1), ball.CenterOfMass())
		if _, err := w.AddCollider(0, ball, h, geom.Identity(), material); err != nil {
			return nil, err
		}

		arm := pivot.Sub(pos)
		if _, err := w.AddConstraint(joint.NewRevolute(body.Ground, h, pivot, arm)); err != nil {
			return nil, err
		}
	}

	return w, nil
}
