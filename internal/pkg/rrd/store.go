// Package rrd reads the meter's round-robin database and renders graphs with
// librrd. It needs cgo and the librrd headers.
package rrd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/ziutek/rrd"
	"go.uber.org/zap"

	"github.com/anicoll/strom-graph/internal/pkg/graph"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// Store is a read-only view of one database file.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: zap.L(),
	}
}

func (s *Store) Path() string {
	return s.path
}

// stat distinguishes a missing database from one that cannot be opened.
func (s *Store) stat() error {
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", graph.ErrDatabaseNotFound, s.path)
	case err != nil:
		return fmt.Errorf("%w: %w", graph.ErrDatabaseUnreadable, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", graph.ErrDatabaseUnreadable, s.path)
	}
	return nil
}

// Channels lists the data sources by fetching the most recent minute.
func (s *Store) Channels(ctx context.Context) ([]string, error) {
	end := time.Now()
	res, err := s.fetch(ctx, model.Average, end.Add(-time.Minute), end, time.Second)
	if err != nil {
		return nil, err
	}
	defer res.FreeValues()
	return append([]string(nil), res.DsNames...), nil
}

func (s *Store) Fetch(ctx context.Context, cf model.ConsolidationFn, start, end time.Time) (*model.Dataset, error) {
	res, err := s.fetch(ctx, cf, start, end, time.Second)
	if err != nil {
		return nil, err
	}
	defer res.FreeValues()

	ds := &model.Dataset{
		Start:  res.Start,
		End:    res.End,
		Step:   res.Step,
		Rows:   res.RowCnt,
		Values: make(map[string][]float64, len(res.DsNames)),
	}
	for i, name := range res.DsNames {
		values := make([]float64, res.RowCnt)
		for row := range values {
			values[row] = res.ValueAt(i, row)
		}
		ds.Values[name] = values
	}
	s.logger.Debug("fetched",
		zap.String("path", s.path),
		zap.Stringer("cf", cf),
		zap.Time("start", ds.Start),
		zap.Duration("step", ds.Step),
		zap.Int("rows", ds.Rows),
	)
	return ds, nil
}

func (s *Store) fetch(ctx context.Context, cf model.ConsolidationFn, start, end time.Time, step time.Duration) (rrd.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return rrd.FetchResult{}, err
	}
	if err := s.stat(); err != nil {
		return rrd.FetchResult{}, err
	}
	res, err := rrd.Fetch(s.path, cf.String(), start, end, step)
	if err != nil {
		return rrd.FetchResult{}, fmt.Errorf("%w: %w", graph.ErrDatabaseUnreadable, err)
	}
	return res, nil
}

// Info returns librrd's metadata dump for the database.
func (s *Store) Info(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.stat(); err != nil {
		return nil, err
	}
	info, err := rrd.Info(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrDatabaseUnreadable, err)
	}
	return info, nil
}

// Backup copies the database to dst, replacing dst atomically. It returns
// the number of bytes copied.
func (s *Store) Backup(ctx context.Context, dst string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.stat(); err != nil {
		return 0, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", graph.ErrDatabaseUnreadable, err)
	}
	if err := renameio.WriteFile(dst, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing backup %s: %w", dst, err)
	}
	s.logger.Info("database backup written", zap.String("path", s.path), zap.String("backup", dst), zap.Int("bytes", len(data)))
	return int64(len(data)), nil
}
