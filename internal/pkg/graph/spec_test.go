package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/strom-graph/internal/pkg/config"
	"github.com/anicoll/strom-graph/internal/pkg/model"
)

var hourDE = model.Job{Period: model.PeriodHour, Language: model.LanguageDE}

func directiveStrings(s *Spec) []string {
	out := make([]string, len(s.Directives))
	for i, d := range s.Directives {
		out[i] = d.String()
	}
	return out
}

func TestBuild_DefaultHourGraph(t *testing.T) {
	spec := Build(config.Default(), hourDE, fixedNow)

	assert.Equal(t, []string{
		"DEF:ein=db/ehz.rrd:Einspeisung:AVERAGE",
		"DEF:za=db/ehz.rrd:Bezug:AVERAGE",
		"DEF:zx=db/ehz.rrd:Wirkleistung:AVERAGE",
		"CDEF:bb=zx,10000,+,100,/",
		"CDEF:ba=ein,36,*",
		"CDEF:bc=za,36,*",
		"LINE5:ba#FF0000:Einspeisung",
		"AREA:ba#7FFF7FFF",
		"LINE5:bc#00FF00:Bezug",
		"AREA:bc#FF7F7F7F",
		"LINE3:bb#FFF000:Leistung",
		`COMMENT:Montag 19 Oktober 2026, 14\:03\:05`,
	}, directiveStrings(spec))

	assert.Equal(t, "PNG", spec.ImageFormat)
	assert.Equal(t, uint(1024), spec.Width)
	assert.Equal(t, uint(612), spec.Height)
	assert.Equal(t, "Strom letzte Stunde", spec.Title)
	assert.Equal(t, "Energie Wh", spec.VerticalLabel)
	assert.Equal(t, "Leistung W", spec.RightAxis.Label)
	assert.Equal(t, 10.0, spec.RightAxis.Scale)
	assert.Equal(t, -1000.0, spec.RightAxis.Shift)
	assert.Equal(t, "%4.0lf", spec.RightAxis.Format)
	assert.Equal(t, 0.0, spec.LowerLimit)
	assert.Equal(t, fixedNow.Add(-time.Hour), spec.Start)
	assert.Equal(t, fixedNow, spec.End)
	assert.Equal(t, []string{"Einspeisung", "Bezug", "Wirkleistung"}, spec.Channels())
}

func TestBuild_PowerAreaToggle(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.PowerArea = true
	got := directiveStrings(Build(cfg, hourDE, fixedNow))

	require.Len(t, got, 13)
	assert.Equal(t, "AREA:bb#FFFF7F7F", got[11])
	assert.Contains(t, got[12], "COMMENT:")
}

func TestBuild_ZeroLineToggle(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.ZeroLine = true
	got := directiveStrings(Build(cfg, hourDE, fixedNow))

	require.Len(t, got, 13)
	assert.Equal(t, "LINE3:bb#FFF000:Leistung", got[10])
	assert.Equal(t, "HRULE:100#FFF000", got[11])
	assert.Contains(t, got[12], "COMMENT:")

	cfg.Graph.PowerOffset = 5000
	cfg.Graph.PowerDivisor = 50
	cfg.Graph.Colors.ZeroLine = "0000FF"
	got = directiveStrings(Build(cfg, hourDE, fixedNow))
	assert.Equal(t, "HRULE:100#0000FF", got[11])

	cfg.Graph.PowerOffset = 1000
	got = directiveStrings(Build(cfg, hourDE, fixedNow))
	assert.Equal(t, "HRULE:20#0000FF", got[11])
}

func TestBuild_LanguageAndPeriod(t *testing.T) {
	spec := Build(config.Default(), model.Job{Period: model.PeriodWeek, Language: model.LanguageEN}, fixedNow)

	assert.Equal(t, "Power Usage - this week", spec.Title)
	assert.Equal(t, "Energy Wh", spec.VerticalLabel)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), spec.Start)
	got := directiveStrings(spec)
	assert.Contains(t, got, "LINE5:ba#FF0000:Export")
	assert.Contains(t, got, "LINE5:bc#00FF00:Import")
	assert.Contains(t, got, `COMMENT:Monday 19 October 2026, 14\:03\:05`)
}

func TestBuild_ConfiguredValues(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = "/data/meter:1.rrd"
	cfg.Channels.Power = "P"
	cfg.Graph.Title = "Custom"
	cfg.Graph.EnergyFactor = 3.6
	cfg.Graph.PowerOffset = 5000
	cfg.Graph.PowerDivisor = 50
	spec := Build(cfg, hourDE, fixedNow)

	got := directiveStrings(spec)
	assert.Equal(t, `DEF:zx=/data/meter\:1.rrd:P:AVERAGE`, got[2])
	assert.Equal(t, "CDEF:bb=zx,5000,+,50,/", got[3])
	assert.Equal(t, "CDEF:ba=ein,3.6,*", got[4])
	assert.Equal(t, "Custom", spec.Title)
}

func TestSpec_Args(t *testing.T) {
	args := Build(config.Default(), hourDE, fixedNow).Args()

	assert.Subset(t, args, []string{"--full-size-mode", "--right-axis", "10:-1000", "--lower-limit", "0"})
	assert.Equal(t, "--imgformat", args[0])
	assert.Equal(t, `COMMENT:Montag 19 Oktober 2026, 14\:03\:05`, args[len(args)-1])
}

func TestWatermark(t *testing.T) {
	tests := map[string]struct {
		at   time.Time
		lang model.Language
		want string
	}{
		"english":       {at: fixedNow, lang: model.LanguageEN, want: "Monday 19 October 2026, 14:03:05"},
		"english c":     {at: time.Date(2026, time.March, 1, 9, 5, 7, 0, time.UTC), lang: model.LanguageEN, want: "Sunday 01 March 2026, 09:05:07"},
		"german":        {at: fixedNow, lang: model.LanguageDE, want: "Montag 19 Oktober 2026, 14:03:05"},
		"german umlaut": {at: time.Date(2026, time.March, 1, 9, 5, 7, 0, time.UTC), lang: model.LanguageDE, want: "Sonntag 01 März 2026, 09:05:07"},
		"german same":   {at: time.Date(2026, time.August, 5, 23, 59, 59, 0, time.UTC), lang: model.LanguageDE, want: "Mittwoch 05 August 2026, 23:59:59"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Watermark(tt.at, tt.lang))
		})
	}
}
