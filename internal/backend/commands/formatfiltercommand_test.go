package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
)

func TestNewFormatFilterCommand_Defaults(t *testing.T) {
	command, err := NewFormatFilterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	filter := command.(*FormatFilterCommand)
	if len(filter.formats) != 2 || filter.formats[0] != "jpeg" || filter.formats[1] != "png" {
		t.Errorf("Expected default formats [jpeg png], got %v", filter.formats)
	}
	if command.Name() != "FormatFilterCommand" {
		t.Errorf("Expected name 'FormatFilterCommand', got '%s'", command.Name())
	}
}

func TestNewFormatFilterCommand_InvalidParams(t *testing.T) {
	if _, err := NewFormatFilterCommand(map[string]any{"formats": []any{}}); err == nil {
		t.Error("Expected error for empty formats")
	}
	if _, err := NewFormatFilterCommand(map[string]any{"maxPixels": 0}); err == nil {
		t.Error("Expected error for zero maxPixels")
	}
}

func TestFormatFilterCommand_Execute(t *testing.T) {
	command, err := NewFormatFilterCommand(map[string]any{"formats": []any{"jpg", "PNG"}})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	pngData := encodeTestPNG(t, 4, 4)
	out, err := command.Execute(pngData)
	if err != nil {
		t.Fatalf("Expected png to pass, got %v", err)
	}
	if !bytes.Equal(out, pngData) {
		t.Error("Expected bytes to pass through unchanged")
	}

	if _, err := command.Execute(encodeTestJPEG(t, 4, 4)); err != nil {
		t.Errorf("Expected jpeg to pass, got %v", err)
	}

	if _, err := command.Execute(encodeTestGIF(t, 4, 4)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for gif, got %v", err)
	}

	if _, err := command.Execute([]byte("definitely not an image")); !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("Expected ErrUnreadableImage, got %v", err)
	}
}

func TestFormatFilterCommand_SVG(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"></svg>`)

	strict, err := NewFormatFilterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}
	if _, err := strict.Execute(svgData); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for svg, got %v", err)
	}

	lenient, err := NewFormatFilterCommand(map[string]any{"formats": "png, svg"})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}
	if _, err := lenient.Execute(svgData); err != nil {
		t.Errorf("Expected svg to pass, got %v", err)
	}
}

func TestFormatFilterCommand_MaxPixels(t *testing.T) {
	command, err := NewFormatFilterCommand(map[string]any{"maxPixels": 100})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}
	if _, err := command.Execute(encodeTestPNG(t, 10, 10)); err != nil {
		t.Errorf("Expected 10x10 to pass, got %v", err)
	}
	if _, err := command.Execute(encodeTestPNG(t, 11, 10)); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Expected ErrImageTooLarge, got %v", err)
	}
}

func TestDefaultRegistry_HasUploadCommands(t *testing.T) {
	for _, name := range []string{"FormatFilterCommand", "PngConverterCommand", "PixelScaleCommand"} {
		if !commandstructure.DefaultRegistry.IsRegistered(name) {
			t.Errorf("Expected %s to be registered in DefaultRegistry", name)
		}
	}
}

func TestParallelFor_VisitsEveryIndexOnce(t *testing.T) {
	const n = 97
	var seen [n]int32
	parallelFor(n, func(y int) {
		seen[y]++
	})
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("index %d visited %d times", i, count)
		}
	}
	parallelFor(0, func(int) { t.Fatal("must not be called") })
}
