package commands

import (
	"bytes"
	"errors"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const formatSVG = "svg"

var (
	// ErrUnreadableImage is returned when the bytes cannot be decoded as any known format
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrUnsupportedFormat is returned when the image decodes but its format is not allowed
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the decoded pixel count exceeds the configured limit
	ErrImageTooLarge = errors.New("image dimensions too large")
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func hasCorrectPngSignature(data []byte) bool {
	return len(data) >= len(pngSignature) && bytes.Equal(data[:len(pngSignature)], pngSignature)
}

// isSVGData looks for an svg root element or the SVG namespace in the first 4KB
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	header := data
	if len(header) > 4096 {
		header = header[:4096]
	}
	header = bytes.ToLower(bytes.TrimSpace(header))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte(`xmlns="http://www.w3.org/2000/svg"`)) ||
		bytes.Contains(header, []byte(`xmlns='http://www.w3.org/2000/svg'`))
}
