package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/graph"
	"github.com/anicoll/strom-graph/internal/pkg/rrd"
)

var errNoBackupPath = errors.New("database.backup_path is not configured")

// GraphCommand renders every configured graph once and exits.
func GraphCommand(ctx *cli.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()

	renderer, err := graph.LookupRenderer(cfg.Graph.Renderer)
	if err != nil {
		return err
	}
	return run(ctx.Context, cfg, rrd.NewStore(cfg.Database.Path), renderer, logger)
}

// BackupCommand copies the database to database.backup_path.
func BackupCommand(ctx *cli.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	return backup(ctx.Context, cfg, rrd.NewStore(cfg.Database.Path), logger)
}

// InspectCommand logs the database's data sources and metadata.
func InspectCommand(ctx *cli.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	return inspect(ctx.Context, cfg, rrd.NewStore(cfg.Database.Path), logger)
}

func setup(ctx *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	if err := registerRenderers(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadConfig layers the flags over the file and environment and validates
// the result.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	applyFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("rrd-path") {
		cfg.Database.Path = ctx.String("rrd-path")
	}
	if ctx.IsSet("backup-path") {
		cfg.Database.BackupPath = ctx.String("backup-path")
	}
	if ctx.IsSet("output") {
		cfg.Output.Path = ctx.String("output")
	}
	if ctx.IsSet("renderer") {
		cfg.Graph.Renderer = ctx.String("renderer")
	}
	if ctx.IsSet("period") {
		cfg.Graph.Periods = ctx.StringSlice("period")
	}
	if ctx.IsSet("language") {
		cfg.Graph.Languages = ctx.StringSlice("language")
	}
	if ctx.IsSet("power-area") {
		cfg.Graph.PowerArea = ctx.Bool("power-area")
	}
	if ctx.IsSet("zero-line") {
		cfg.Graph.ZeroLine = ctx.Bool("zero-line")
	}
	if ctx.IsSet("render-timeout") {
		cfg.Graph.Timeout = ctx.Duration("render-timeout")
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

var registerOnce = sync.OnceValue(func() error {
	return errors.Join(
		graph.RegisterRenderer("rrdtool", rrd.NewRenderer()),
		graph.RegisterRenderer("chart", graph.NewChartRenderer()),
	)
})

// registerRenderers must run after the global logger is installed, the
// renderers keep the logger they are built with.
func registerRenderers() error {
	return registerOnce()
}

// run renders every job. A failed job does not stop the others; their
// errors are joined.
func run(ctx context.Context, cfg *config.Config, src graph.Source, renderer graph.Renderer, logger *zap.Logger) error {
	gen := graph.NewGenerator(cfg, src, renderer)
	jobs := cfg.Jobs()
	errs := make([]error, len(jobs))

	var eg errgroup.Group
	eg.SetLimit(cfg.Graph.Concurrency)
	for i, job := range jobs {
		eg.Go(func() error {
			res, err := gen.Generate(ctx, job)
			if err != nil {
				logger.Error("graph generation failed", zap.Stringer("job", job), zap.Error(err))
				errs[i] = fmt.Errorf("graph %s: %w", job, err)
				return nil
			}
			logger.Info("graph generated",
				zap.Stringer("job", job),
				zap.String("path", res.Path),
				zap.Time("start", res.Start),
				zap.Time("end", res.End),
			)
			return nil
		})
	}
	_ = eg.Wait()
	return errors.Join(errs...)
}

func backup(ctx context.Context, cfg *config.Config, store Store, logger *zap.Logger) error {
	if cfg.Database.BackupPath == "" {
		return errNoBackupPath
	}
	n, err := store.Backup(ctx, cfg.Database.BackupPath)
	if err != nil {
		logger.Error("database backup failed", zap.Error(err))
		return err
	}
	logger.Info("database backup successful", zap.Int64("bytes", n), zap.String("backup", cfg.Database.BackupPath))
	return nil
}

func inspect(ctx context.Context, cfg *config.Config, store Store, logger *zap.Logger) error {
	channels, err := store.Channels(ctx)
	if err != nil {
		return err
	}
	missing := lo.Without(cfg.Channels.Names(), channels...)
	logger.Info("database channels",
		zap.String("path", cfg.Database.Path),
		zap.Strings("channels", channels),
		zap.Strings("missing", missing),
	)

	info, err := store.Info(ctx)
	if err != nil {
		return err
	}
	keys := lo.Keys(info)
	sort.Strings(keys)
	fields := lo.Map(keys, func(k string, _ int) zap.Field {
		return zap.Any(k, info[k])
	})
	logger.Info("database info", fields...)

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", graph.ErrMissingChannel, strings.Join(missing, ", "))
	}
	return nil
}
