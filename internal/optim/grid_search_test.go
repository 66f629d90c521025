package optim

import (
	"context"
	"testing"

	"github.com/san-kum/rigid2d/internal/config"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scene = "pyramid"
	cfg.Duration = 0.2
	cfg.Params = map[string]float64{"rows": 2}
	return cfg
}

func TestGridSearchVisitsAllAndPicksMinimum(t *testing.T) {
	g := NewGridSearch([]string{"rows"}, [][]float64{{3, 1, 2}})

	// fewer boxes means fewer contacts
	best, val, err := g.Search(context.Background(), baseConfig(), "contacts")
	if err != nil {
		t.Fatal(err)
	}
	if best["rows"] != 1 {
		t.Errorf("best = %v (%v), want rows=1", best, val)
	}
}

func TestGridSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{"erp", "rows"}, [][]float64{{0.2}})
	if _, _, err := g.Search(context.Background(), baseConfig(), "contacts"); err == nil {
		t.Error("expected error")
	}
}

func TestGridSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"erp"}, [][]float64{{0.1, 0.2}})
	if _, _, err := g.Search(ctx, baseConfig(), "contacts"); err == nil {
		t.Error("expected cancellation error")
	}
}
