package commands

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
)

const defaultMaxPixels = 40_000_000

var defaultFormats = []string{"jpeg", "png"}

// FormatFilterCommand rejects uploads whose decoded format is not in the allow list,
// or whose dimensions exceed maxPixels. It passes accepted bytes through unchanged.
type FormatFilterCommand struct {
	name      string
	formats   []string
	maxPixels int
}

// NewFormatFilterCommand reads "formats" (image.Decode format names, plus "svg") and
// "maxPixels"
func NewFormatFilterCommand(params map[string]any) (commandstructure.Command, error) {
	formats := commandstructure.GetStringSliceParam(params, "formats", defaultFormats)
	if len(formats) == 0 {
		return nil, fmt.Errorf("formats must not be empty")
	}
	normalized := make([]string, len(formats))
	for i, f := range formats {
		normalized[i] = strings.ToLower(strings.TrimSpace(f))
		// image.Decode reports jpeg for both .jpg and .jpeg files
		if normalized[i] == "jpg" {
			normalized[i] = "jpeg"
		}
	}

	maxPixels := commandstructure.GetIntParam(params, "maxPixels", defaultMaxPixels)
	if maxPixels <= 0 {
		return nil, fmt.Errorf("maxPixels must be positive, got %d", maxPixels)
	}

	return &FormatFilterCommand{
		name:      "FormatFilterCommand",
		formats:   normalized,
		maxPixels: maxPixels,
	}, nil
}

func (c *FormatFilterCommand) Name() string {
	return c.name
}

func (c *FormatFilterCommand) Execute(imageData []byte) ([]byte, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		if isSVGData(imageData) {
			if slices.Contains(c.formats, formatSVG) {
				return imageData, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, formatSVG)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	if !slices.Contains(c.formats, format) {
		slog.Debug("FormatFilterCommand: rejecting format", "format", format, "allowed", c.formats)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if config.Width*config.Height > c.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, config.Width, config.Height, c.maxPixels)
	}
	return imageData, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("FormatFilterCommand", NewFormatFilterCommand); err != nil {
		panic(fmt.Sprintf("failed to register FormatFilterCommand: %v", err))
	}
}
