package chart

import (
	"errors"
	"time"
)

// Kind selects how a chart is drawn.
type Kind string

const (
	KindBar        Kind = "bar"
	KindTimeSeries Kind = "time-series"
)

// Point is one (x, y) sample of a time series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a named set of values. Bar charts use Values, aligned with the
// chart's Categories; time-series charts use Points.
type Series struct {
	Name   string
	Values []float64
	Points []Point
}

// Chart is everything a Renderer needs to draw one chart.
type Chart struct {
	Target     string
	Kind       Kind
	Title      string
	XAxisTitle string
	YAxisTitle string
	Categories []string
	Series     []Series
}

// Renderer draws a chart and returns where the result was written.
type Renderer interface {
	Render(c Chart) (string, error)
}

// Validate checks that c is drawable.
func (c Chart) Validate() error {
	if c.Target == "" {
		return errors.New("chart target is required")
	}
	if len(c.Series) == 0 {
		return errors.New("chart needs at least one series")
	}
	switch c.Kind {
	case KindBar:
		for _, s := range c.Series {
			if len(s.Values) != len(c.Categories) {
				return errors.New("bar series length must match categories")
			}
		}
	case KindTimeSeries:
	default:
		return errors.New("unknown chart kind " + string(c.Kind))
	}
	return nil
}
