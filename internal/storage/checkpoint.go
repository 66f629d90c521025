package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/san-kum/rigid2d/internal/world"
)

// SaveCheckpoint stores the final world snapshot of a run so it can be
// restored into a freshly built scene.
func (s *Store) SaveCheckpoint(runID string, snap world.Snapshot) error {
	data, err := bson.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return os.WriteFile(filepath.Join(s.baseDir, runID, checkpointFile), data, 0644)
}

func (s *Store) LoadCheckpoint(runID string) (world.Snapshot, error) {
	var snap world.Snapshot
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, checkpointFile))
	if err != nil {
		return snap, err
	}
	if err := bson.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode checkpoint: %w", err)
	}
	return snap, nil
}
