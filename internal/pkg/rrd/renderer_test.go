package rrd

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/graph"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

var hourDE = model.Job{Period: model.PeriodHour, Language: model.LanguageDE}

func testConfig(t *testing.T, dbPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = dbPath
	cfg.Output.Path = filepath.Join(t.TempDir(), "strom-tage.png")
	return cfg
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}

func TestGenerate_RRDTool(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, createDatabase(t, allChannels()...))
	g := graph.NewGenerator(cfg, NewStore(cfg.Database.Path), NewRenderer())

	_, err := g.Generate(context.Background(), hourDE)
	require.NoError(t, err)
	w, h := imageSize(t, cfg.Output.Path)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 612, h)

	// a second run replaces the first image in place
	first, err := os.Stat(cfg.Output.Path)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = g.Generate(context.Background(), hourDE)
	require.NoError(t, err)
	second, err := os.Stat(cfg.Output.Path)
	require.NoError(t, err)
	assert.False(t, second.ModTime().Before(first.ModTime()))
	entries, err := os.ReadDir(filepath.Dir(cfg.Output.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerate_RRDToolPowerAreaZeroLineAndEnglish(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, createDatabase(t, allChannels()...))
	cfg.Graph.PowerArea = true
	cfg.Graph.ZeroLine = true
	g := graph.NewGenerator(cfg, NewStore(cfg.Database.Path), NewRenderer())

	_, err := g.Generate(context.Background(), model.Job{Period: model.PeriodDay, Language: model.LanguageEN})
	require.NoError(t, err)
	w, h := imageSize(t, cfg.Output.Path)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 612, h)
}

func TestGenerate_ChartRendererFromDatabase(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, createDatabase(t, allChannels()...))
	cfg.Graph.ZeroLine = true
	g := graph.NewGenerator(cfg, NewStore(cfg.Database.Path), graph.NewChartRenderer())

	_, err := g.Generate(context.Background(), hourDE)
	require.NoError(t, err)
	w, h := imageSize(t, cfg.Output.Path)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 612, h)
}

func TestGenerate_MissingDatabase(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, filepath.Join(t.TempDir(), "ehz.rrd"))
	g := graph.NewGenerator(cfg, NewStore(cfg.Database.Path), NewRenderer())

	_, err := g.Generate(context.Background(), hourDE)
	assert.True(t, errors.Is(err, graph.ErrDatabaseNotFound), "got %v", err)
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_MissingChannel(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, createDatabase(t, "Einspeisung", "Wirkleistung"))
	g := graph.NewGenerator(cfg, NewStore(cfg.Database.Path), NewRenderer())

	_, err := g.Generate(context.Background(), hourDE)
	assert.True(t, errors.Is(err, graph.ErrMissingChannel), "got %v", err)
	assert.ErrorContains(t, err, "Bezug")
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDerivedSeriesFromDatabase(t *testing.T) {
	useTestLogger(t)
	cfg := testConfig(t, createDatabase(t, allChannels()...))
	now := time.Now()
	spec := graph.Build(cfg, hourDE, now)

	ds, err := NewStore(cfg.Database.Path).Fetch(context.Background(), model.Average, spec.Start, spec.End)
	require.NoError(t, err)
	values, err := graph.Evaluate(spec, ds)
	require.NoError(t, err)

	checked := 0
	for row := 0; row < ds.Rows; row++ {
		if math.IsNaN(values[graph.VarExportE][row]) {
			continue
		}
		checked++
		assert.InDelta(t, export*36, values[graph.VarExportE][row], 1e-6)
		assert.InDelta(t, imp*36, values[graph.VarImportE][row], 1e-6)
		assert.InDelta(t, (power+10000)/100, values[graph.VarPowerW][row], 1e-6)
	}
	assert.Greater(t, checked, 50)
}

func TestGrapher_UnsupportedDirective(t *testing.T) {
	spec := graph.Build(config.Default(), hourDE, time.Now())
	spec.Directives = append(spec.Directives, unknownDirective{})

	_, err := grapher(spec)
	assert.ErrorContains(t, err, "unsupported directive")
}

type unknownDirective struct{ graph.Comment }
