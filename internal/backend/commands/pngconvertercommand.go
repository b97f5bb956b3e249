package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// PngConverterCommand normalizes any decodable upload to PNG so the page can show it
// as a data URI regardless of the original format
type PngConverterCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewPngConverterCommand reads the optional "svgFallbackWidth"/"svgFallbackHeight",
// used only for SVGs without explicit dimensions
func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	w := commandstructure.GetIntParam(params, "svgFallbackWidth", 0)
	h := commandstructure.GetIntParam(params, "svgFallbackHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("svg fallback size must not be negative, got %dx%d", w, h)
	}

	return &PngConverterCommand{
		name:              "PngConverterCommand",
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
	}, nil
}

func (c *PngConverterCommand) Name() string {
	return c.name
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if hasCorrectPngSignature(imageData) {
		return imageData, nil
	}

	if isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	slog.Debug("PngConverterCommand: decoded upload",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image to PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *PngConverterCommand) convertSVG(svgData []byte) ([]byte, error) {
	w, h, ok := svgExplicitSize(svgData)
	if !ok {
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("SVG has no explicit size and no fallback size is configured")
	}

	out, err := renderSVGToPNG(svgData, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render SVG to PNG: %w", err)
	}
	return out, nil
}

var (
	svgRootTag  = regexp.MustCompile(`(?is)<svg\b[^>]*>`)
	svgSizeAttr = regexp.MustCompile(`(?i)\b(width|height)\s*=\s*["']\s*([0-9]+)`)
)

// svgExplicitSize reads integer width and height attributes from the root element.
// A viewBox alone is not treated as a pixel size.
func svgExplicitSize(data []byte) (int, int, bool) {
	if len(data) > 8192 {
		data = data[:8192]
	}
	tag := svgRootTag.Find(data)
	if tag == nil {
		return 0, 0, false
	}

	var w, h int
	for _, m := range svgSizeAttr.FindAllSubmatch(tag, -1) {
		v, err := strconv.Atoi(string(m[2]))
		if err != nil || v <= 0 {
			continue
		}
		switch string(bytes.ToLower(m[1])) {
		case "width":
			w = v
		case "height":
			h = v
		}
	}
	return w, h, w > 0 && h > 0
}

// renderSVGToPNG rasterizes the SVG onto a white canvas of the given size
func renderSVGToPNG(svgData []byte, targetW, targetH int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode rendered SVG as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}
