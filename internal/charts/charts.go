// Package charts renders spending reports as PNG images for the bot.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"budgetbot/internal/models"
)

// maxBars caps how many category buckets a chart shows; the summary is
// ordered largest-first, so the tail carries little signal.
const maxBars = 8

// CategoryBar renders a bar chart of category totals. Returns nil bytes when
// there is nothing to draw.
func CategoryBar(title string, totals []models.CategoryTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, nil
	}
	if len(totals) > maxBars {
		totals = totals[:maxBars]
	}

	bars := make([]chart.Value, 0, len(totals))
	for _, ct := range totals {
		bars = append(bars, chart.Value{
			Label: truncateLabel(ct.Category),
			Value: ct.Total,
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Height:   512,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateLabel(s string) string {
	const limit = 12
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
