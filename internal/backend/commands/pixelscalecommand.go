package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
)

// PixelScaleParams holds the target size. A nil dimension is derived from the other
// one so the aspect ratio is kept.
type PixelScaleParams struct {
	Height *int
	Width  *int
	// DownscaleOnly leaves images that already fit the target untouched
	DownscaleOnly bool
}

func NewPixelScaleParamsFromMap(params map[string]any) (*PixelScaleParams, error) {
	_, hasHeight := params["height"]
	_, hasWidth := params["width"]
	if !hasHeight && !hasWidth {
		return nil, fmt.Errorf("at least one of 'height' or 'width' must be specified")
	}

	result := &PixelScaleParams{
		DownscaleOnly: commandstructure.GetBoolParam(params, "downscaleOnly", false),
	}

	if hasHeight {
		height := commandstructure.GetIntParam(params, "height", 0)
		if height <= 0 {
			return nil, fmt.Errorf("height must be positive, got %d", height)
		}
		result.Height = &height
	}

	if hasWidth {
		width := commandstructure.GetIntParam(params, "width", 0)
		if width <= 0 {
			return nil, fmt.Errorf("width must be positive, got %d", width)
		}
		result.Width = &width
	}

	return result, nil
}

// PixelScaleCommand resizes with nearest-neighbor sampling and always emits PNG.
// It produces the preview thumbnail shown next to the prediction.
type PixelScaleCommand struct {
	name   string
	params *PixelScaleParams
}

func NewPixelScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPixelScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &PixelScaleCommand{
		name:   "PixelScaleCommand",
		params: typedParams,
	}, nil
}

func (c *PixelScaleCommand) Name() string {
	return c.name
}

func (c *PixelScaleCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := c.targetSize(bounds.Dx(), bounds.Dy())

	if c.params.DownscaleOnly && targetWidth >= bounds.Dx() && targetHeight >= bounds.Dy() {
		slog.Debug("PixelScaleCommand: image already fits target, re-encoding only",
			"width", bounds.Dx(), "height", bounds.Dy())
		return encodePNG(img)
	}

	slog.Debug("PixelScaleCommand: scaling image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", targetWidth,
		"target_height", targetHeight)

	return encodePNG(scaleNearest(img, targetWidth, targetHeight))
}

// targetSize resolves the configured dimensions against the source aspect ratio.
// Results are clamped to at least one pixel.
func (c *PixelScaleCommand) targetSize(srcWidth, srcHeight int) (int, int) {
	aspectRatio := float64(srcWidth) / float64(srcHeight)

	var w, h int
	switch {
	case c.params.Width != nil && c.params.Height != nil:
		w, h = *c.params.Width, *c.params.Height
	case c.params.Width != nil:
		w = *c.params.Width
		h = int(float64(w) / aspectRatio)
	default:
		h = *c.params.Height
		w = int(float64(h) * aspectRatio)
	}
	return max(w, 1), max(h, 1)
}

func scaleNearest(src image.Image, targetWidth, targetHeight int) *image.RGBA {
	// Convert once so the per-pixel reads below avoid the image.Image interface
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	}
	srcWidth, srcHeight := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	origin := rgba.Bounds().Min

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	parallelFor(targetHeight, func(y int) {
		srcY := min(y*srcHeight/targetHeight, srcHeight-1)
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+targetWidth*4]
		for x := 0; x < targetWidth; x++ {
			srcX := min(x*srcWidth/targetWidth, srcWidth-1)
			si := rgba.PixOffset(origin.X+srcX, origin.Y+srcY)
			copy(dstRow[x*4:x*4+4], rgba.Pix[si:si+4])
		}
	})
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG image: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PixelScaleCommand", NewPixelScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register PixelScaleCommand: %v", err))
	}
}
