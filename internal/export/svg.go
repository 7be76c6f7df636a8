// Package export renders stored runs as standalone SVG charts.
package export

import (
	"fmt"
	"strings"
)

// Line is one plotted series sharing the chart's time axis.
type Line struct {
	Name   string
	Color  string
	Values []float64
}

var palette = []string{"#ffb000", "#00ccff", "#ff4757", "#5fd068", "#ff9ff3", "#feca57"}

const margin = 40.0

// ChartSVG draws lines against times as a single SVG document. Each line is
// scaled to its own range so series with different units can share a chart;
// the legend carries each range.
func ChartSVG(title string, times []float64, lines []Line, width, height int) string {
	if len(times) < 2 || len(lines) == 0 {
		return ""
	}

	t0, t1 := times[0], times[len(times)-1]
	spanT := t1 - t0
	if spanT == 0 {
		spanT = 1
	}
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%.0f" y="24" fill="#ffffff" font-family="monospace" font-size="14">%s</text>
<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="none" stroke="#444466"/>
`, width, height, width, height, margin, escape(title), margin, margin, plotW, plotH))

	for i, line := range lines {
		color := line.Color
		if color == "" {
			color = palette[i%len(palette)]
		}
		lo, hi := bounds(line.Values)
		rng := hi - lo
		if rng == 0 {
			rng = 1
		}

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, color))
		n := min(len(line.Values), len(times))
		for j := 0; j < n; j++ {
			x := margin + (times[j]-t0)/spanT*plotW
			y := margin + plotH - (line.Values[j]-lo)/rng*plotH
			if j == 0 {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="%s" font-family="monospace" font-size="11">%s [%.2f, %.2f]</text>
`, margin+4, margin+14+float64(i)*14, color, escape(line.Name), lo, hi))
	}

	sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="#888899" font-family="monospace" font-size="11">%.0fs</text>
<text x="%.0f" y="%.0f" fill="#888899" font-family="monospace" font-size="11" text-anchor="end">%.0fs</text>
`, margin, float64(height)-margin/2, t0, float64(width)-margin, float64(height)-margin/2, t1))

	sb.WriteString("</svg>\n")
	return sb.String()
}

func bounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
