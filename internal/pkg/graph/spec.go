package graph

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// Directive is one element of a graph: a data binding, a computed series,
// a drawing layer or a text line. String renders rrdtool syntax.
type Directive interface {
	fmt.Stringer
	directive()
}

// Def binds VName to a data source of the database.
type Def struct {
	VName string
	File  string
	DS    string
	CF    model.ConsolidationFn
}

// CDef computes VName from earlier names with an RPN expression.
type CDef struct {
	VName string
	RPN   string
}

type Line struct {
	Width  float64
	VName  string
	Color  model.Color
	Legend string
}

type Area struct {
	VName  string
	Color  model.Color
	Legend string
}

// HRule is a horizontal rule at a constant value of the primary axis.
type HRule struct {
	Value  float64
	Color  model.Color
	Legend string
}

type Comment struct {
	Text string
}

func (Def) directive()     {}
func (CDef) directive()    {}
func (Line) directive()    {}
func (Area) directive()    {}
func (HRule) directive()   {}
func (Comment) directive() {}

func (d Def) String() string {
	return fmt.Sprintf("DEF:%s=%s:%s:%s", d.VName, escapeColons(d.File), d.DS, d.CF)
}

func (c CDef) String() string {
	return fmt.Sprintf("CDEF:%s=%s", c.VName, c.RPN)
}

func (l Line) String() string {
	s := fmt.Sprintf("LINE%s:%s#%s", strconv.FormatFloat(l.Width, 'f', -1, 64), l.VName, l.Color)
	if l.Legend != "" {
		s += ":" + escapeColons(l.Legend)
	}
	return s
}

func (a Area) String() string {
	s := fmt.Sprintf("AREA:%s#%s", a.VName, a.Color)
	if a.Legend != "" {
		s += ":" + escapeColons(a.Legend)
	}
	return s
}

func (h HRule) String() string {
	s := fmt.Sprintf("HRULE:%s#%s", num(h.Value), h.Color)
	if h.Legend != "" {
		s += ":" + escapeColons(h.Legend)
	}
	return s
}

func (c Comment) String() string {
	return "COMMENT:" + escapeColons(c.Text)
}

func escapeColons(s string) string {
	return strings.ReplaceAll(s, ":", `\:`)
}

type RightAxis struct {
	Scale  float64
	Shift  float64
	Label  string
	Format string
}

// Spec is everything a renderer needs to draw one graph. It is built fresh
// for each job and never modified afterwards.
type Spec struct {
	Job           model.Job
	ImageFormat   string
	Width         uint
	Height        uint
	Title         string
	VerticalLabel string
	UnitsExponent int
	LowerLimit    float64
	RightAxis     RightAxis
	Start         time.Time
	End           time.Time
	Watermark     string
	Directives    []Directive
}

// Variable names bound by Build.
const (
	VarExport  = "ein"
	VarImport  = "za"
	VarPower   = "zx"
	VarPowerW  = "bb"
	VarExportE = "ba"
	VarImportE = "bc"
)

// Build assembles the graph for job as of now.
func Build(cfg *config.Config, job model.Job, now time.Time) *Spec {
	g := cfg.Graph
	l := labelsFor(job)
	title := l.Title
	if g.Title != "" {
		title = g.Title
	}
	cf := cfg.ConsolidationFn()
	watermark := Watermark(now, job.Language)

	directives := []Directive{
		Def{VName: VarExport, File: cfg.Database.Path, DS: cfg.Channels.Export, CF: cf},
		Def{VName: VarImport, File: cfg.Database.Path, DS: cfg.Channels.Import, CF: cf},
		Def{VName: VarPower, File: cfg.Database.Path, DS: cfg.Channels.Power, CF: cf},
		CDef{VName: VarPowerW, RPN: fmt.Sprintf("%s,%s,+,%s,/", VarPower, num(g.PowerOffset), num(g.PowerDivisor))},
		CDef{VName: VarExportE, RPN: fmt.Sprintf("%s,%s,*", VarExport, num(g.EnergyFactor))},
		CDef{VName: VarImportE, RPN: fmt.Sprintf("%s,%s,*", VarImport, num(g.EnergyFactor))},
		Line{Width: 5, VName: VarExportE, Color: model.Color(g.Colors.Export), Legend: l.Export},
		Area{VName: VarExportE, Color: model.Color(g.Colors.ExportArea)},
		Line{Width: 5, VName: VarImportE, Color: model.Color(g.Colors.Import), Legend: l.Import},
		Area{VName: VarImportE, Color: model.Color(g.Colors.ImportArea)},
		Line{Width: 3, VName: VarPowerW, Color: model.Color(g.Colors.Power), Legend: l.Power},
	}
	if g.PowerArea {
		directives = append(directives, Area{VName: VarPowerW, Color: model.Color(g.Colors.PowerArea)})
	}
	if g.ZeroLine {
		// bb is plotted shifted by offset/divisor, so 0 W sits there.
		directives = append(directives, HRule{Value: g.PowerOffset / g.PowerDivisor, Color: model.Color(g.Colors.ZeroLine)})
	}
	directives = append(directives, Comment{Text: watermark})

	return &Spec{
		Job:           job,
		ImageFormat:   "PNG",
		Width:         g.Width,
		Height:        g.Height,
		Title:         title,
		VerticalLabel: l.Vertical,
		UnitsExponent: g.UnitsExponent,
		LowerLimit:    g.LowerLimit,
		RightAxis: RightAxis{
			Scale:  g.RightAxisScale,
			Shift:  g.RightAxisShift,
			Label:  l.RightAxis,
			Format: g.RightAxisFormat,
		},
		Start:      now.Add(-job.Period.Duration()),
		End:        now,
		Watermark:  watermark,
		Directives: directives,
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Defs returns the data bindings in order.
func (s *Spec) Defs() []Def {
	var defs []Def
	for _, d := range s.Directives {
		if def, ok := d.(Def); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// Channels lists the data sources the graph reads.
func (s *Spec) Channels() []string {
	defs := s.Defs()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.DS
	}
	return names
}

// Args renders the spec as an rrdtool graph argument list, without the
// output file name.
func (s *Spec) Args() []string {
	args := []string{
		"--imgformat", s.ImageFormat,
		"--width", strconv.FormatUint(uint64(s.Width), 10),
		"--height", strconv.FormatUint(uint64(s.Height), 10),
		"--full-size-mode",
		"--title", s.Title,
		"--vertical-label", s.VerticalLabel,
		"--units-exponent", strconv.Itoa(s.UnitsExponent),
		"--start", strconv.FormatInt(s.Start.Unix(), 10),
		"--end", strconv.FormatInt(s.End.Unix(), 10),
		"--right-axis", fmt.Sprintf("%s:%s", num(s.RightAxis.Scale), num(s.RightAxis.Shift)),
		"--right-axis-label", s.RightAxis.Label,
		"--lower-limit", num(s.LowerLimit),
		"--right-axis-format", s.RightAxis.Format,
	}
	for _, d := range s.Directives {
		args = append(args, d.String())
	}
	return args
}
