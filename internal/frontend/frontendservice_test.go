package frontend

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jo-hoe/peanutclassifier/internal/core"
	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	config := core.DefaultConfig()
	config.Classifier.Seed = 11
	config.ThumbnailWidth = 8

	coreService, err := core.NewCoreService(context.Background(), config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	NewFrontendService(config, coreService).SetRoutes(e)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func evaluateRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/htmx/evaluate", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestRootRedirect(t *testing.T) {
	rec := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("Expected 301, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/index.html" {
		t.Errorf("Expected redirect to /index.html, got %q", rec.Header().Get("Location"))
	}
}

func TestIndex_Defaults(t *testing.T) {
	rec := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	for _, expected := range []string{
		`name="size" min="1" max="50" value="10"`,
		`name="weight" min="1" max="20" value="5"`,
		`<option value="LightBrown" selected>Light Brown</option>`,
		`accept=".jpg,.jpeg,.png"`,
		"Small size seed, could be weak.",
		"Color selected: Light Brown",
		"Average weight, seems good.",
		"No visible defects.",
		"Random Seed Quality Chart",
		"<svg",
	} {
		if !strings.Contains(body, expected) {
			t.Errorf("Expected page to contain %q", expected)
		}
	}
	if strings.Contains(body, "Prediction Result") {
		t.Error("Expected no prediction without an image")
	}
	if strings.Contains(body, " checked") {
		t.Error("Expected checkboxes to be unchecked by default")
	}
}

func TestHtmxEvaluate_Scenario(t *testing.T) {
	fields := map[string]string{"size": "10", "color": "Mixed", "weight": "3", "spots": "true"}
	rec := serve(newTestServer(t), evaluateRequest(t, fields, "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()

	for _, expected := range []string{
		`<section id="result">`,
		"Small size seed, could be weak.",
		"Color selected: Mixed",
		"Mixed color could indicate some bad seeds.",
		"Lightweight seed, may not be strong.",
		"Seed issues detected: Spots",
		`name="prediction" value=""`,
	} {
		if !strings.Contains(body, expected) {
			t.Errorf("Expected fragment to contain %q", expected)
		}
	}
	if strings.Contains(body, "Broken") {
		t.Error("Expected no broken defect")
	}
}

func TestHtmxEvaluate_WithImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	fields := map[string]string{"size": "30", "color": "Yellowish", "weight": "12"}
	rec := serve(newTestServer(t), evaluateRequest(t, fields, "seed.png", buf.Bytes()))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()

	if !strings.Contains(body, `src="data:image/png;base64,`) {
		t.Error("Expected inline preview image")
	}
	if !strings.Contains(body, "Prediction Result: Good") && !strings.Contains(body, "Prediction Result: Bad") {
		t.Error("Expected a prediction")
	}
	if !strings.Contains(body, "Large seed, check for defects.") || !strings.Contains(body, "Heavy seed, check for dryness or damage.") {
		t.Error("Expected large and heavy advisories")
	}
}

func TestHtmxEvaluate_Rejections(t *testing.T) {
	e := newTestServer(t)
	valid := map[string]string{"size": "10", "color": "LightBrown", "weight": "5"}

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		content  []byte
		message  string
	}{
		{"size out of range", map[string]string{"size": "0", "color": "LightBrown", "weight": "5"}, "", nil, "seed size"},
		{"unknown color", map[string]string{"size": "10", "color": "Green", "weight": "5"}, "", nil, "unknown seed color"},
		{"gif upload", valid, "seed.gif", []byte("GIF89a"), "Only JPG, JPEG and PNG images are accepted"},
		{"unreadable image", valid, "seed.jpg", []byte("not an image"), messageUnreadableImage},
		{"empty image", valid, "seed.jpg", []byte{}, messageUnreadableImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, evaluateRequest(t, tt.fields, tt.filename, tt.content))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("Expected message %q, got %s", tt.message, rec.Body.String())
			}
		})
	}
}

func TestDownload_CSV(t *testing.T) {
	form := url.Values{
		"size":       {"10"},
		"color":      {"Mixed"},
		"weight":     {"3"},
		"spots":      {"true"},
		"prediction": {""},
	}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := serve(newTestServer(t), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	expected := "Seed Size (mm),Seed Color,Seed Weight (g),Has Spots,Is Broken,Prediction\n10,Mixed,3,True,False,\n"
	if rec.Body.String() != expected {
		t.Errorf("Expected csv %q, got %q", expected, rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderContentType) != "text/csv" {
		t.Errorf("Expected text/csv, got %q", rec.Header().Get(echo.HeaderContentType))
	}
	if rec.Header().Get(echo.HeaderContentDisposition) != `attachment; filename="peanut_seed_results.csv"` {
		t.Errorf("Unexpected Content-Disposition %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
}

func TestDownload_WithPrediction(t *testing.T) {
	form := url.Values{
		"size":       {"20"},
		"color":      {"LightBrown"},
		"weight":     {"8"},
		"broken":     {"true"},
		"prediction": {string(evaluator.LabelBad)},
	}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := serve(newTestServer(t), req)
	if !strings.HasSuffix(rec.Body.String(), "\n20,Light Brown,8,False,True,Bad\n") {
		t.Errorf("Unexpected csv %q", rec.Body.String())
	}

	form.Set("prediction", "Maybe")
	req = httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if rec := serve(newTestServer(t), req); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown prediction, got %d", rec.Code)
	}
}

func TestChartPNG(t *testing.T) {
	rec := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/chart.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("Expected decodable PNG: %v", err)
	}
}

func TestIconAndProbe(t *testing.T) {
	e := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.svg", nil))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/svg+xml" {
		t.Errorf("Unexpected icon response %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/probe", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected probe 200, got %d", rec.Code)
	}
}
