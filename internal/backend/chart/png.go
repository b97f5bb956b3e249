package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// RenderPNG rasterizes the bar chart. Text is left out because the rasterizer does not
// draw it.
func RenderPNG(rows []evaluator.ChartRow, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	opts.Labels = false
	svg := RenderSVG(rows, opts)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(opts.Width), float64(opts.Height))

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(opts.Width, opts.Height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(opts.Width, opts.Height, scanner)
	icon.Draw(dasher, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode chart as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
