package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// EnvPrefix is prepended to every environment variable the config reads,
// e.g. STROMGRAPH_RRD_PATH.
const EnvPrefix = "STROMGRAPH_"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Channels ChannelConfig  `yaml:"channels"`
	Graph    GraphConfig    `yaml:"graph"`
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
}

type DatabaseConfig struct {
	Path            string `yaml:"path" env:"RRD_PATH"`
	BackupPath      string `yaml:"backup_path" env:"RRD_BACKUP_PATH"`
	ConsolidationFn string `yaml:"consolidation_fn" env:"RRD_CF"`
}

type OutputConfig struct {
	// Path is the image written when a single graph is rendered.
	Path string `yaml:"path" env:"OUTPUT_PATH"`
	// Name prefixes the file names used when several graphs are rendered
	// into the directory of Path.
	Name string `yaml:"name" env:"OUTPUT_NAME"`
}

// ChannelConfig names the data sources inside the round-robin database.
type ChannelConfig struct {
	Export string `yaml:"export" env:"CHANNEL_EXPORT"`
	Import string `yaml:"import" env:"CHANNEL_IMPORT"`
	Power  string `yaml:"power" env:"CHANNEL_POWER"`
}

func (c ChannelConfig) Names() []string {
	return []string{c.Export, c.Import, c.Power}
}

type GraphConfig struct {
	Renderer    string        `yaml:"renderer" env:"RENDERER"`
	Periods     []string      `yaml:"periods" env:"PERIODS" envSeparator:","`
	Languages   []string      `yaml:"languages" env:"LANGUAGES" envSeparator:","`
	Concurrency int           `yaml:"concurrency" env:"CONCURRENCY"`
	Timeout     time.Duration `yaml:"render_timeout" env:"RENDER_TIMEOUT"`

	Width         uint    `yaml:"width" env:"WIDTH"`
	Height        uint    `yaml:"height" env:"HEIGHT"`
	Title         string  `yaml:"title" env:"TITLE"`
	LowerLimit    float64 `yaml:"lower_limit" env:"LOWER_LIMIT"`
	UnitsExponent int     `yaml:"units_exponent" env:"UNITS_EXPONENT"`

	RightAxisScale  float64 `yaml:"right_axis_scale" env:"RIGHT_AXIS_SCALE"`
	RightAxisShift  float64 `yaml:"right_axis_shift" env:"RIGHT_AXIS_SHIFT"`
	RightAxisFormat string  `yaml:"right_axis_format" env:"RIGHT_AXIS_FORMAT"`

	EnergyFactor float64 `yaml:"energy_factor" env:"ENERGY_FACTOR"`
	PowerOffset  float64 `yaml:"power_offset" env:"POWER_OFFSET"`
	PowerDivisor float64 `yaml:"power_divisor" env:"POWER_DIVISOR"`

	// PowerArea fills the area under the power line. Off by default.
	PowerArea bool `yaml:"power_area" env:"POWER_AREA"`
	// ZeroLine draws a horizontal rule at 0 W on the power axis. Off by default.
	ZeroLine bool `yaml:"zero_line" env:"ZERO_LINE"`

	Colors ColorConfig `yaml:"colors"`
}

type ColorConfig struct {
	Export     string `yaml:"export" env:"COLOR_EXPORT"`
	ExportArea string `yaml:"export_area" env:"COLOR_EXPORT_AREA"`
	Import     string `yaml:"import" env:"COLOR_IMPORT"`
	ImportArea string `yaml:"import_area" env:"COLOR_IMPORT_AREA"`
	Power      string `yaml:"power" env:"COLOR_POWER"`
	PowerArea  string `yaml:"power_area" env:"COLOR_POWER_AREA"`
	ZeroLine   string `yaml:"zero_line" env:"COLOR_ZERO_LINE"`
}

// Default returns the configuration of the original hourly graph job.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "db/ehz.rrd",
			BackupPath:      "bak/ehz.rrd",
			ConsolidationFn: model.Average.String(),
		},
		Output: OutputConfig{
			Path: "db/strom-tage.png",
			Name: "strom",
		},
		Channels: ChannelConfig{
			Export: "Einspeisung",
			Import: "Bezug",
			Power:  "Wirkleistung",
		},
		Graph: GraphConfig{
			Renderer:        "rrdtool",
			Periods:         []string{model.PeriodHour.String()},
			Languages:       []string{model.LanguageDE.String()},
			Concurrency:     1,
			Width:           1024,
			Height:          612,
			LowerLimit:      0,
			UnitsExponent:   0,
			RightAxisScale:  10,
			RightAxisShift:  -1000,
			RightAxisFormat: "%4.0lf",
			EnergyFactor:    36,
			PowerOffset:     10000,
			PowerDivisor:    100,
			Colors: ColorConfig{
				Export:     "FF0000",
				ExportArea: "7FFF7FFF",
				Import:     "00FF00",
				ImportArea: "FF7F7F7F",
				Power:      "FFF000",
				PowerArea:  "FFFF7F7F",
				ZeroLine:   "FFF000",
			},
		},
		LogLevel: "INFO",
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path skips the file. The result is not validated,
// callers apply their own overrides and call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg, os.Environ()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the STROMGRAPH_ variables found in environ.
func ApplyEnv(cfg *Config, environ []string) error {
	vars := lo.SliceToMap(environ, func(kv string) (string, string) {
		k, v, _ := strings.Cut(kv, "=")
		return k, v
	})
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
	}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Jobs expands the configured periods and languages into render jobs.
// Call Validate first.
func (c *Config) Jobs() []model.Job {
	jobs := make([]model.Job, 0, len(c.Graph.Periods)*len(c.Graph.Languages))
	for _, p := range c.Graph.Periods {
		period, _ := model.ParsePeriod(p)
		for _, l := range c.Graph.Languages {
			lang, _ := model.ParseLanguage(l)
			jobs = append(jobs, model.Job{Period: period, Language: lang})
		}
	}
	return lo.UniqBy(jobs, func(j model.Job) string { return j.String() })
}

func (c *Config) ConsolidationFn() model.ConsolidationFn {
	cf, err := model.ParseConsolidationFn(c.Database.ConsolidationFn)
	if err != nil {
		return model.Average
	}
	return cf
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if _, err := model.ParseConsolidationFn(c.Database.ConsolidationFn); err != nil {
		errs = append(errs, "database.consolidation_fn: "+err.Error())
	}
	if c.Output.Path == "" {
		errs = append(errs, "output.path is required")
	}

	for field, name := range map[string]string{
		"channels.export": c.Channels.Export,
		"channels.import": c.Channels.Import,
		"channels.power":  c.Channels.Power,
	} {
		if name == "" {
			errs = append(errs, field+" is required")
		}
	}
	if dups := lo.FindDuplicates(c.Channels.Names()); len(dups) > 0 {
		errs = append(errs, fmt.Sprintf("channels must be distinct, duplicated: %s", strings.Join(dups, ", ")))
	}

	if len(c.Graph.Periods) == 0 {
		errs = append(errs, "graph.periods must not be empty")
	}
	for _, p := range c.Graph.Periods {
		if _, err := model.ParsePeriod(p); err != nil {
			errs = append(errs, "graph.periods: "+err.Error())
		}
	}
	if len(c.Graph.Languages) == 0 {
		errs = append(errs, "graph.languages must not be empty")
	}
	for _, l := range c.Graph.Languages {
		if _, err := model.ParseLanguage(l); err != nil {
			errs = append(errs, "graph.languages: "+err.Error())
		}
	}
	if c.Graph.Renderer == "" {
		errs = append(errs, "graph.renderer is required")
	}
	if c.Graph.Concurrency < 1 {
		errs = append(errs, "graph.concurrency must be at least 1")
	}
	if c.Graph.Timeout < 0 {
		errs = append(errs, "graph.render_timeout must not be negative")
	}
	if c.Graph.Width == 0 || c.Graph.Height == 0 {
		errs = append(errs, "graph.width and graph.height must be positive")
	}
	if c.Graph.PowerDivisor == 0 {
		errs = append(errs, "graph.power_divisor must not be zero")
	}
	if c.Graph.RightAxisScale == 0 {
		errs = append(errs, "graph.right_axis_scale must not be zero")
	}

	for field, color := range map[string]string{
		"graph.colors.export":      c.Graph.Colors.Export,
		"graph.colors.export_area": c.Graph.Colors.ExportArea,
		"graph.colors.import":      c.Graph.Colors.Import,
		"graph.colors.import_area": c.Graph.Colors.ImportArea,
		"graph.colors.power":       c.Graph.Colors.Power,
		"graph.colors.power_area":  c.Graph.Colors.PowerArea,
		"graph.colors.zero_line":   c.Graph.Colors.ZeroLine,
	} {
		if err := model.Color(color).Validate(); err != nil {
			errs = append(errs, field+": "+err.Error())
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
