package cmd

import (
	"context"

	"github.com/anicoll/strom-graph/internal/pkg/graph"
)

// Store is what the commands need from the round-robin database.
type Store interface {
	graph.Source
	Backup(ctx context.Context, dst string) (int64, error)
	Info(ctx context.Context) (map[string]any, error)
}
