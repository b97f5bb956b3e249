package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrUploadTooLarge       = errors.New("uploaded file is too large")
	ErrEmptyUpload          = errors.New("uploaded file is empty")
)

// ReadUpload returns the content and file name of an optional multipart file field.
// A request without the field yields nil data and no error; a present but empty file
// is ErrEmptyUpload.
func ReadUpload(ctx echo.Context, field string, allowedExtensions []string, maxBytes int64) ([]byte, string, error) {
	file, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get uploaded file: %w", err)
	}

	if !hasAllowedExtension(file.Filename, allowedExtensions) {
		return nil, file.Filename, fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(file.Filename))
	}
	if file.Size == 0 {
		return nil, file.Filename, ErrEmptyUpload
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, file.Filename, fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, file.Size, maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, file.Filename, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("ReadUpload: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	reader := io.Reader(src)
	if maxBytes > 0 {
		reader = io.LimitReader(src, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, file.Filename, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, file.Filename, fmt.Errorf("%w: limit %d", ErrUploadTooLarge, maxBytes)
	}
	if len(data) == 0 {
		return nil, file.Filename, ErrEmptyUpload
	}
	return data, file.Filename, nil
}

// UploadStatus maps a ReadUpload error to the HTTP status returned to the client
func UploadStatus(err error) int {
	if errors.Is(err, ErrUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func hasAllowedExtension(filename string, allowedExtensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, allowed := range allowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}
