package portfolio

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderValuationChart(t *testing.T) {
	points := []models.ValuationPoint{
		{Date: "2026-08-01", Value: decimal.NewFromInt(1000)},
		{Date: "2026-08-10", Value: decimal.NewFromInt(1200)},
		{Date: "2026-08-20", Value: decimal.NewFromInt(900)},
	}

	png, err := renderValuationChart(points)
	if err != nil {
		t.Fatalf("renderValuationChart: %v", err)
	}
	if len(png) == 0 || !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("expected PNG output, got %d bytes", len(png))
	}
}

func TestRenderValuationChartNeedsTwoPoints(t *testing.T) {
	_, err := renderValuationChart([]models.ValuationPoint{
		{Date: "2026-08-01", Value: decimal.NewFromInt(1000)},
	})
	if err == nil {
		t.Fatal("expected error for single point")
	}
}

func TestRenderValuationChartRejectsBadDate(t *testing.T) {
	_, err := renderValuationChart([]models.ValuationPoint{
		{Date: "01/08/2026", Value: decimal.NewFromInt(1)},
		{Date: "2026-08-02", Value: decimal.NewFromInt(2)},
	})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}
