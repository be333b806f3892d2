package graph

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

var fixedNow = time.Date(2026, time.October, 19, 14, 3, 5, 0, time.UTC)

type fakeSource struct {
	channels    []string
	channelsErr error
	dataset     *model.Dataset
	fetchErr    error
}

func (f *fakeSource) Channels(ctx context.Context) ([]string, error) {
	return f.channels, f.channelsErr
}

func (f *fakeSource) Fetch(ctx context.Context, cf model.ConsolidationFn, start, end time.Time) (*model.Dataset, error) {
	return f.dataset, f.fetchErr
}

// syntheticDataset returns an hour of one-minute rows with the given
// constant readings; every tenth row is unknown.
func syntheticDataset(export, imp, power float64) *model.Dataset {
	const rows = 60
	ds := &model.Dataset{
		Start:  fixedNow.Add(-time.Hour),
		End:    fixedNow,
		Step:   time.Minute,
		Rows:   rows,
		Values: map[string][]float64{},
	}
	for name, v := range map[string]float64{"Einspeisung": export, "Bezug": imp, "Wirkleistung": power} {
		values := make([]float64, rows)
		for i := range values {
			values[i] = v
			if i%10 == 0 {
				values[i] = math.NaN()
			}
		}
		ds.Values[name] = values
	}
	return ds
}

func allChannels() []string {
	return config.Default().Channels.Names()
}

type fakeRenderer struct {
	width, height int
	err           error
	delay         time.Duration
	calls         atomic.Int32
	lastSpec      atomic.Pointer[Spec]
}

func (f *fakeRenderer) Render(ctx context.Context, spec *Spec, src Source) ([]byte, error) {
	f.calls.Add(1)
	f.lastSpec.Store(spec)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return pngOf(f.width, f.height), nil
}

func pngOf(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}
