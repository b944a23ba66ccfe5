package chart

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const dataSheet = "Data"

var unsafeTarget = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExcelRenderer writes each chart as a workbook holding the series data and a
// native chart drawn over it.
type ExcelRenderer struct {
	Dir string
	log *zap.Logger
}

// NewExcelRenderer writes workbooks into dir, creating it on first use.
func NewExcelRenderer(dir string, log *zap.Logger) *ExcelRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExcelRenderer{Dir: dir, log: log}
}

// Render draws c into a new <Dir>/<Target>-<random>.xlsx and returns its path.
// The caller owns the file and removes it once delivered.
func (r *ExcelRenderer) Render(c Chart) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}

	var (
		series []excelize.ChartSeries
		kind   excelize.ChartType
		err    error
	)
	switch c.Kind {
	case KindBar:
		kind = excelize.Bar
		series, err = writeBarData(f, c)
	case KindTimeSeries:
		kind = excelize.Scatter
		series, err = writeTimeSeriesData(f, c)
	}
	if err != nil {
		return "", err
	}

	lastCol, err := excelize.ColumnNumberToName(2*len(c.Series) + 2)
	if err != nil {
		return "", err
	}
	if err := f.AddChart(dataSheet, lastCol+"2", &excelize.Chart{
		Type:      kind,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: c.Title}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.XAxisTitle}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.YAxisTitle}}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	}); err != nil {
		return "", fmt.Errorf("add chart: %w", err)
	}

	out, err := os.CreateTemp(r.Dir, unsafeTarget.ReplaceAllString(c.Target, "_")+"-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	path := out.Name()
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("save chart: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save chart: %w", err)
	}
	r.log.Debug("chart rendered",
		zap.String("target", c.Target),
		zap.String("kind", string(c.Kind)),
		zap.String("path", path))
	return path, nil
}

// writeBarData lays categories out in column A and one column per series.
func writeBarData(f *excelize.File, c Chart) ([]excelize.ChartSeries, error) {
	header := []interface{}{"Category"}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, cat := range c.Categories {
		row := []interface{}{cat}
		for _, s := range c.Series {
			row = append(row, s.Values[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	last := len(c.Categories) + 1
	categories, err := columnRange(1, 2, last)
	if err != nil {
		return nil, err
	}
	out := make([]excelize.ChartSeries, 0, len(c.Series))
	for i := range c.Series {
		name, err := excelize.CoordinatesToCellName(i+2, 1, true)
		if err != nil {
			return nil, err
		}
		values, err := columnRange(i+2, 2, last)
		if err != nil {
			return nil, err
		}
		out = append(out, excelize.ChartSeries{
			Name:       dataSheet + "!" + name,
			Categories: categories,
			Values:     values,
		})
	}
	return out, nil
}

// writeTimeSeriesData gives every series its own pair of time/value columns,
// since places are not sampled on the same dates.
func writeTimeSeriesData(f *excelize.File, c Chart) ([]excelize.ChartSeries, error) {
	var out []excelize.ChartSeries
	for i, s := range c.Series {
		timeCol, valueCol := 2*i+1, 2*i+2
		head, err := excelize.CoordinatesToCellName(timeCol, 1)
		if err != nil {
			return nil, err
		}
		header := []interface{}{s.Name + " date", s.Name}
		if err := f.SetSheetRow(dataSheet, head, &header); err != nil {
			return nil, err
		}
		for j, p := range s.Points {
			cell, err := excelize.CoordinatesToCellName(timeCol, j+2)
			if err != nil {
				return nil, err
			}
			row := []interface{}{p.Time, p.Value}
			if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
				return nil, err
			}
		}
		if len(s.Points) == 0 {
			continue
		}

		name, err := excelize.CoordinatesToCellName(valueCol, 1, true)
		if err != nil {
			return nil, err
		}
		xs, err := columnRange(timeCol, 2, len(s.Points)+1)
		if err != nil {
			return nil, err
		}
		ys, err := columnRange(valueCol, 2, len(s.Points)+1)
		if err != nil {
			return nil, err
		}
		out = append(out, excelize.ChartSeries{
			Name:       dataSheet + "!" + name,
			Categories: xs,
			Values:     ys,
		})
	}
	if len(out) == 0 {
		return nil, errors.New("time series chart has no points")
	}
	return out, nil
}

func columnRange(col, fromRow, toRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, fromRow, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col, toRow, true)
	if err != nil {
		return "", err
	}
	return dataSheet + "!" + from + ":" + to, nil
}
