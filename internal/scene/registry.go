package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/rigid2d/internal/world"
)

var ErrUnknownScene = errors.New("scene: unknown scene")

// Params are numeric scene knobs. Missing entries fall back to each
// scene's defaults.
type Params map[string]float64

func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

func (p Params) Int(name string, def int) int {
	return int(p.Get(name, float64(def)))
}

// Builder populates a fresh world. Options are applied after the scene's
// own, so callers can override gravity or parameters.
type Builder func(p Params, opts ...world.Option) (*world.World, error)

type Registry struct {
	scenes map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]Builder)}

	r.scenes["spring_grid"] = SpringGrid
	r.scenes["pendulum_chain"] = PendulumChain
	r.scenes["pyramid"] = Pyramid
	r.scenes["cradle"] = Cradle

	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.scenes[name] = b
}

func (r *Registry) Build(name string, p Params, opts ...world.Option) (*world.World, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	return fn(p, opts...)
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Build uses the built-in scenes.
func Build(name string, p Params, opts ...world.Option) (*world.World, error) {
	return defaultRegistry.Build(name, p, opts...)
}

func List() []string { return defaultRegistry.List() }
