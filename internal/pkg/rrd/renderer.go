package rrd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ziutek/rrd"
	"go.uber.org/zap"

	"github.com/anicoll/strom-graph/internal/pkg/graph"
)

// Renderer draws a graph.Spec with librrd's grapher. It reads the database
// named in the spec's DEFs directly and ignores the source.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer() *Renderer {
	return &Renderer{logger: zap.L()}
}

func (r *Renderer) Render(ctx context.Context, spec *graph.Spec, _ graph.Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := grapher(spec)
	if err != nil {
		return nil, err
	}
	info, img, err := g.Graph(spec.Start, spec.End)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("rrdtool graph",
		zap.Uint("width", info.Width),
		zap.Uint("height", info.Height),
		zap.Float64("ymin", info.Ymin),
		zap.Float64("ymax", info.Ymax),
	)
	return img, nil
}

// grapher translates the spec into librrd graph arguments.
func grapher(spec *graph.Spec) (*rrd.Grapher, error) {
	g := rrd.NewGrapher()
	g.SetSize(spec.Width, spec.Height)
	g.SetTitle(spec.Title)
	g.SetVLabel(spec.VerticalLabel)
	g.SetUnitsExponent(spec.UnitsExponent)
	g.SetLowerLimit(spec.LowerLimit)
	g.SetRightAxis(spec.RightAxis.Scale, spec.RightAxis.Shift)
	g.SetRightAxisLabel(spec.RightAxis.Label)
	g.AddOptions(
		"--imgformat", spec.ImageFormat,
		"--full-size-mode",
		"--right-axis-format", spec.RightAxis.Format,
	)

	for _, d := range spec.Directives {
		switch d := d.(type) {
		case graph.Def:
			g.Def(d.VName, d.File, d.DS, d.CF.String())
		case graph.CDef:
			g.CDef(d.VName, d.RPN)
		case graph.Line:
			g.Line(float32(d.Width), d.VName, d.Color.String(), legend(d.Legend)...)
		case graph.Area:
			g.Area(d.VName, d.Color.String(), legend(d.Legend)...)
		case graph.HRule:
			g.HRule(strconv.FormatFloat(d.Value, 'f', -1, 64), d.Color.String(), legend(d.Legend)...)
		case graph.Comment:
			g.Comment(escape(d.Text))
		default:
			return nil, fmt.Errorf("unsupported directive %T", d)
		}
	}
	return g, nil
}

func legend(s string) []string {
	if s == "" {
		return nil
	}
	return []string{escape(s)}
}

func escape(s string) string {
	return strings.ReplaceAll(s, ":", `\:`)
}
