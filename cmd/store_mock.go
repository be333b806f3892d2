package cmd

import (
	"context"
	"time"

	"github.com/anicoll/strom-graph/internal/pkg/graph"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// MockStore is a mock implementation of the Store interface.
type MockStore struct {
	ChannelsFunc func(ctx context.Context) ([]string, error)
	FetchFunc    func(ctx context.Context, cf model.ConsolidationFn, start, end time.Time) (*model.Dataset, error)
	BackupFunc   func(ctx context.Context, dst string) (int64, error)
	InfoFunc     func(ctx context.Context) (map[string]any, error)
}

func (m *MockStore) Channels(ctx context.Context) ([]string, error) {
	if m.ChannelsFunc != nil {
		return m.ChannelsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) Fetch(ctx context.Context, cf model.ConsolidationFn, start, end time.Time) (*model.Dataset, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, cf, start, end)
	}
	return &model.Dataset{Start: start, End: end, Step: time.Minute}, nil
}

func (m *MockStore) Backup(ctx context.Context, dst string) (int64, error) {
	if m.BackupFunc != nil {
		return m.BackupFunc(ctx, dst)
	}
	return 0, nil
}

func (m *MockStore) Info(ctx context.Context) (map[string]any, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx)
	}
	return map[string]any{}, nil
}

// MockRenderer is a mock implementation of graph.Renderer.
type MockRenderer struct {
	RenderFunc func(ctx context.Context, spec *graph.Spec, src graph.Source) ([]byte, error)
}

func (m *MockRenderer) Render(ctx context.Context, spec *graph.Spec, src graph.Source) ([]byte, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, spec, src)
	}
	return nil, nil
}
