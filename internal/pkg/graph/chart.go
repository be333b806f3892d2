package graph

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// ChartRenderer draws the graph in Go: it fetches the bound channels,
// evaluates the computed series itself and plots them with go-chart.
type ChartRenderer struct {
	logger *zap.Logger
}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{logger: zap.L()}
}

func (r *ChartRenderer) Render(ctx context.Context, spec *Spec, src Source) ([]byte, error) {
	defs := spec.Defs()
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: graph binds no data", ErrNoData)
	}
	ds, err := src.Fetch(ctx, defs[0].CF, spec.Start, spec.End)
	if err != nil {
		return nil, err
	}
	values, err := Evaluate(spec, ds)
	if err != nil {
		return nil, err
	}

	series, maxY, err := r.series(spec, ds.Timestamps(), values)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoData, spec.Start.Format(time.RFC3339), spec.End.Format(time.RFC3339))
	}
	rules, ruleMax, err := hrules(spec)
	if err != nil {
		return nil, err
	}
	series = append(series, rules...)
	maxY = math.Max(maxY, ruleMax)

	yRange := &chart.ContinuousRange{Min: spec.LowerLimit, Max: niceMax(maxY, spec.LowerLimit)}
	graph := chart.Chart{
		Title:  spec.Title,
		Width:  int(spec.Width),
		Height: int(spec.Height),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           spec.Watermark,
			ValueFormatter: timeFormatter(spec.Job.Period),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(spec.Start),
				Max: chart.TimeToFloat64(spec.End),
			},
		},
		YAxis: chart.YAxis{
			Name:           spec.VerticalLabel,
			Range:          yRange,
			ValueFormatter: numberFormatter("%.0f", 1, 0),
		},
		YAxisSecondary: chart.YAxis{
			Name:           spec.RightAxis.Label,
			Range:          &chart.ContinuousRange{Min: yRange.Min, Max: yRange.Max},
			ValueFormatter: numberFormatter(spec.RightAxis.Format, spec.RightAxis.Scale, spec.RightAxis.Shift),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// series turns every LINE into a time series, filling it with the colour of
// an AREA on the same name. An AREA without a LINE becomes a fill-only
// series. The power line goes on the secondary axis, which shares the
// primary range so the right-axis mapping matches rrdtool.
func (r *ChartRenderer) series(spec *Spec, ts []time.Time, values map[string][]float64) ([]chart.Series, float64, error) {
	type layer struct {
		line *Line
		area *Area
	}
	var order []string
	layers := make(map[string]*layer)
	get := func(name string) *layer {
		l, ok := layers[name]
		if !ok {
			l = &layer{}
			layers[name] = l
			order = append(order, name)
		}
		return l
	}
	for _, d := range spec.Directives {
		switch d := d.(type) {
		case Line:
			get(d.VName).line = &d
		case Area:
			get(d.VName).area = &d
		}
	}

	maxY := math.Inf(-1)
	var out []chart.Series
	for _, name := range order {
		l := layers[name]
		points := model.Points(ts, values[name])
		if len(points) == 0 {
			r.logger.Debug("series has no known samples", zap.String("series", name))
			continue
		}

		s := chart.TimeSeries{
			XValues: make([]time.Time, len(points)),
			YValues: make([]float64, len(points)),
		}
		for i, p := range points {
			s.XValues[i] = p.Time
			s.YValues[i] = p.Value
			maxY = math.Max(maxY, p.Value)
		}
		if l.line != nil {
			c, err := toDrawingColor(l.line.Color)
			if err != nil {
				return nil, 0, err
			}
			s.Name = l.line.Legend
			s.Style.StrokeColor = c
			s.Style.StrokeWidth = l.line.Width
		} else {
			s.Style.StrokeWidth = 0
		}
		if l.area != nil {
			c, err := toDrawingColor(l.area.Color)
			if err != nil {
				return nil, 0, err
			}
			s.Style.FillColor = c
			if s.Name == "" {
				s.Name = l.area.Legend
			}
		}
		if name == VarPowerW {
			s.YAxis = chart.YAxisSecondary
		}
		out = append(out, s)
	}
	return out, maxY, nil
}

// hrules draws every HRULE as a two-point series across the window.
func hrules(spec *Spec) ([]chart.Series, float64, error) {
	maxY := math.Inf(-1)
	var out []chart.Series
	for _, d := range spec.Directives {
		h, ok := d.(HRule)
		if !ok {
			continue
		}
		c, err := toDrawingColor(h.Color)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, chart.TimeSeries{
			Name:    h.Legend,
			XValues: []time.Time{spec.Start, spec.End},
			YValues: []float64{h.Value, h.Value},
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 1,
			},
		})
		maxY = math.Max(maxY, h.Value)
	}
	return out, maxY, nil
}

func toDrawingColor(c model.Color) (drawing.Color, error) {
	red, green, blue, alpha, err := c.RGBA()
	if err != nil {
		return drawing.Color{}, err
	}
	return drawing.Color{R: red, G: green, B: blue, A: alpha}, nil
}

// niceMax pads the top of the value range so lines do not touch the frame.
func niceMax(maxY, minY float64) float64 {
	if math.IsInf(maxY, -1) || maxY <= minY {
		return minY + 1
	}
	return maxY + (maxY-minY)*0.05
}

// numberFormatter formats tick values as v*scale+shift with a printf
// layout; rrdtool's "%lf" is accepted.
func numberFormatter(layout string, scale, shift float64) chart.ValueFormatter {
	layout = strings.ReplaceAll(layout, "lf", "f")
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf(layout, f*scale+shift))
	}
}

func timeFormatter(p model.Period) chart.ValueFormatter {
	switch p {
	case model.PeriodWeek:
		return chart.TimeValueFormatterWithFormat("Mon 02.01.")
	case model.PeriodDay:
		return chart.TimeValueFormatterWithFormat("15:04")
	default:
		return chart.TimeMinuteValueFormatter
	}
}
