// Package inference talks to an external model service over HTTP. It lets a real model
// replace the random classifier without touching the rest of the evaluation.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

// ErrUnavailable wraps every failure to obtain a prediction from the remote service
var ErrUnavailable = errors.New("inference service unavailable")

const defaultTimeout = 10 * time.Second

// RemoteClassifier posts the uploaded image as multipart field "file" and expects
// {"label": "Good"|"Bad"} in return
type RemoteClassifier struct {
	inferenceURL string
	healthURL    string
	client       *http.Client
}

func NewRemoteClassifier(inferenceURL, healthURL string, timeout time.Duration) *RemoteClassifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RemoteClassifier{
		inferenceURL: inferenceURL,
		healthURL:    healthURL,
		client:       &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Label string `json:"label"`
}

func (c *RemoteClassifier) Classify(ctx context.Context, image []byte) (evaluator.Label, error) {
	if len(image) == 0 {
		return evaluator.LabelNone, fmt.Errorf("%w: no image data", ErrUnavailable)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "seed.png")
	if err != nil {
		return evaluator.LabelNone, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return evaluator.LabelNone, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return evaluator.LabelNone, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inferenceURL, body)
	if err != nil {
		return evaluator.LabelNone, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return evaluator.LabelNone, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return evaluator.LabelNone, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return evaluator.LabelNone, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	label, err := evaluator.ParseLabel(result.Label)
	if err != nil || label == evaluator.LabelNone {
		return evaluator.LabelNone, fmt.Errorf("%w: unexpected label %q", ErrUnavailable, result.Label)
	}
	return label, nil
}

// CheckHealth issues a GET against the health URL. Without one it always succeeds.
func (c *RemoteClassifier) CheckHealth(ctx context.Context) error {
	if c.healthURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
