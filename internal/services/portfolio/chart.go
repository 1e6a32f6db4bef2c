package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dmaitland/tally/internal/models"
)

// HistoryChart renders the account's valuation series as a PNG line chart.
func (s *Service) HistoryChart(ctx context.Context, identifier string, rng models.HistoryRange) ([]byte, error) {
	points, err := s.History(ctx, identifier, rng)
	if err != nil {
		return nil, err
	}
	return renderValuationChart(points)
}

// renderValuationChart renders a PNG line chart from valuation points:
// net worth (blue solid) over the look-back window. Returns raw PNG bytes.
func renderValuationChart(points []models.ValuationPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		date, err := time.Parse(dayFormat, p.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid point date %q: %w", p.Date, err)
		}
		xValues[i] = date
		yValues[i], _ = p.Value.Float64()
	}

	series := chart.TimeSeries{
		Name: "Net Worth",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Portfolio History",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
