package graph

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/contxt"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

type Generator struct {
	cfg      *config.Config
	source   Source
	renderer Renderer
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Generator)

// WithClock replaces time.Now, which stamps the window and the watermark.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(cfg *config.Config, source Source, renderer Renderer, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		now:      time.Now,
		logger:   zap.L(), // returns the global logger.
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type Result struct {
	Job       model.Job
	Path      string
	Watermark string
	Size      int
	Start     time.Time
	End       time.Time
}

// OutputPath is where the image for job is written. A single configured
// job uses output.path as is; several jobs share its directory.
func (g *Generator) OutputPath(job model.Job) string {
	if len(g.cfg.Jobs()) <= 1 {
		return g.cfg.Output.Path
	}
	name := slug.Make(fmt.Sprintf("%s %s %s", g.cfg.Output.Name, labelsFor(job).PeriodShort, job.Language))
	return filepath.Join(filepath.Dir(g.cfg.Output.Path), name+".png")
}

// Generate renders one graph and replaces its output file. Nothing is
// written unless the database checks out and the image has the configured
// size.
func (g *Generator) Generate(ctx context.Context, job model.Job) (Result, error) {
	spec := Build(g.cfg, job, g.now())
	path := g.OutputPath(job)
	logger := g.logger.With(zap.Stringer("job", job), zap.String("output", path))
	logger.Debug("graph spec", zap.Strings("args", spec.Args()))

	if err := g.checkChannels(ctx, spec); err != nil {
		return Result{}, err
	}

	img, err := g.render(ctx, spec)
	if err != nil {
		return Result{}, err
	}
	if err := checkSize(img, spec.Width, spec.Height); err != nil {
		return Result{}, err
	}

	if err := renameio.WriteFile(path, img, 0o644); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	logger.Info("graph written", zap.Int("bytes", len(img)), zap.String("watermark", spec.Watermark))

	return Result{
		Job:       job,
		Path:      path,
		Watermark: spec.Watermark,
		Size:      len(img),
		Start:     spec.Start,
		End:       spec.End,
	}, nil
}

func (g *Generator) checkChannels(ctx context.Context, spec *Spec) error {
	have, err := g.source.Channels(ctx)
	if err != nil {
		return err
	}
	if missing := lo.Without(spec.Channels(), have...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingChannel, strings.Join(missing, ", "))
	}
	return nil
}

type rendered struct {
	img []byte
	err error
}

func (g *Generator) render(ctx context.Context, spec *Spec) ([]byte, error) {
	ctx, cancel := contxt.WithOptionalTimeout(ctx, g.cfg.Graph.Timeout)
	defer cancel()

	// librrd cannot be interrupted; on timeout the call is left to finish
	// in the background and its image is dropped.
	done := make(chan rendered, 1)
	go func() {
		img, err := g.renderer.Render(ctx, spec, g.source)
		done <- rendered{img: img, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, r.err)
		}
		return r.img, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRender, ctx.Err())
	}
}

func checkSize(img []byte, width, height uint) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageSize, err)
	}
	if format != "png" || cfg.Width != int(width) || cfg.Height != int(height) {
		return fmt.Errorf("%w: got %s %dx%d, want png %dx%d", ErrImageSize, format, cfg.Width, cfg.Height, width, height)
	}
	return nil
}
