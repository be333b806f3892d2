package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Color is an rrdtool style colour, RRGGBB or RRGGBBAA.
type Color string

func (c Color) String() string {
	return strings.ToUpper(strings.TrimPrefix(string(c), "#"))
}

// RGBA splits the colour into its channels. Alpha defaults to 0xFF.
func (c Color) RGBA() (r, g, b, a uint8, err error) {
	hex := c.String()
	if len(hex) != 6 && len(hex) != 8 {
		return 0, 0, 0, 0, fmt.Errorf("invalid colour %q", string(c))
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid colour %q: %w", string(c), err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xFF
	}
	return uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

func (c Color) Validate() error {
	_, _, _, _, err := c.RGBA()
	return err
}

// Dataset holds one consolidated fetch from the round-robin database.
// Row i is stamped Start + (i+1)*Step; unknown samples are NaN.
type Dataset struct {
	Start  time.Time
	End    time.Time
	Step   time.Duration
	Rows   int
	Values map[string][]float64
}

func (d *Dataset) Timestamps() []time.Time {
	ts := make([]time.Time, d.Rows)
	for i := range ts {
		ts[i] = d.Start.Add(time.Duration(i+1) * d.Step)
	}
	return ts
}

type Point struct {
	Time  time.Time
	Value float64
}

// Points pairs values with timestamps, skipping unknown and infinite samples.
func Points(ts []time.Time, values []float64) []Point {
	points := make([]Point, 0, len(values))
	for i, v := range values {
		if i >= len(ts) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, Point{Time: ts[i], Value: v})
	}
	return points
}
