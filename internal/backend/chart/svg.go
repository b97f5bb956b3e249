package chart

import (
	"fmt"
	"strings"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 320

	goodColor = "#2e7d32"
	badColor  = "#c62828"
	gridColor = "#d0d0d0"

	marginLeft   = 40
	marginRight  = 12
	marginTop    = 36
	marginBottom = 28
	gridStep     = 10
)

// Options controls the size of the rendered chart. Zero values fall back to defaults.
type Options struct {
	Width  int
	Height int
	// Labels toggles axis and legend text. Rasterization ignores text, so the PNG
	// renderer turns it off.
	Labels bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// RenderSVG draws the rows as a grouped bar chart, good seeds left and bad seeds right
// in each group, in row order.
func RenderSVG(rows []evaluator.ChartRow, opts Options) string {
	opts = opts.withDefaults()
	plotWidth := float64(opts.Width - marginLeft - marginRight)
	plotHeight := float64(opts.Height - marginTop - marginBottom)
	yMax := float64(axisMax(rows))

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		opts.Width, opts.Height, opts.Width, opts.Height)
	b.WriteString(`<title>Random Seed Quality Chart</title>`)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, opts.Width, opts.Height)

	for v := 0; v <= int(yMax); v += gridStep {
		y := float64(marginTop) + plotHeight - plotHeight*float64(v)/yMax
		fmt.Fprintf(&b, `<rect x="%d" y="%.2f" width="%.2f" height="1" fill="%s"/>`, marginLeft, y, plotWidth, gridColor)
		if opts.Labels {
			fmt.Fprintf(&b, `<text x="%d" y="%.2f" font-size="11" text-anchor="end" fill="#555">%d</text>`, marginLeft-6, y+4, v)
		}
	}

	if len(rows) > 0 {
		groupWidth := plotWidth / float64(len(rows))
		barWidth := groupWidth * 0.35
		gap := groupWidth * 0.1
		for i, row := range rows {
			x := float64(marginLeft) + groupWidth*float64(i) + gap
			writeBar(&b, x, barWidth, plotHeight, yMax, row.Good, goodColor)
			writeBar(&b, x+barWidth, barWidth, plotHeight, yMax, row.Bad, badColor)
			if opts.Labels {
				fmt.Fprintf(&b, `<text x="%.2f" y="%d" font-size="11" text-anchor="middle" fill="#555">%d</text>`,
					x+barWidth, opts.Height-marginBottom+16, i)
			}
		}
	}

	writeLegend(&b, opts)
	b.WriteString(`</svg>`)
	return b.String()
}

func writeBar(b *strings.Builder, x, width, plotHeight, yMax float64, value int, fill string) {
	height := plotHeight * float64(value) / yMax
	y := float64(marginTop) + plotHeight - height
	fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`, x, y, width, height, fill)
}

func writeLegend(b *strings.Builder, opts Options) {
	x := marginLeft
	fmt.Fprintf(b, `<rect x="%d" y="10" width="12" height="12" fill="%s"/>`, x, goodColor)
	fmt.Fprintf(b, `<rect x="%d" y="10" width="12" height="12" fill="%s"/>`, x+110, badColor)
	if opts.Labels {
		fmt.Fprintf(b, `<text x="%d" y="21" font-size="12" fill="#333">Good Seeds</text>`, x+18)
		fmt.Fprintf(b, `<text x="%d" y="21" font-size="12" fill="#333">Bad Seeds</text>`, x+128)
	}
}

// axisMax is the largest generated count rounded up to the grid, never below
// evaluator.MaxGoodSeeds so consecutive charts share a scale.
func axisMax(rows []evaluator.ChartRow) int {
	maxValue := evaluator.MaxGoodSeeds
	for _, row := range rows {
		if row.Good > maxValue {
			maxValue = row.Good
		}
		if row.Bad > maxValue {
			maxValue = row.Bad
		}
	}
	if rem := maxValue % gridStep; rem != 0 {
		maxValue += gridStep - rem
	}
	return maxValue
}
