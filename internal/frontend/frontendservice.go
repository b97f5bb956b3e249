package frontend

import (
	"encoding/base64"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jo-hoe/peanutclassifier/internal/backend/chart"
	"github.com/jo-hoe/peanutclassifier/internal/backend/export"
	"github.com/jo-hoe/peanutclassifier/internal/common"
	"github.com/jo-hoe/peanutclassifier/internal/core"
	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName   = "index.html"
	resultTemplate = "result.html"
	mimePNG        = "image/png"

	messageUnreadableImage = "Uploaded file is not a readable image"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type pageData struct {
	Accept      string
	Colors      []evaluator.Color
	Observation evaluator.Observation
	MinSize     int
	MaxSize     int
	MinWeight   int
	MaxWeight   int
	Result      resultView
}

type resultView struct {
	Error          string
	ID             string
	PreviewDataURI template.URL
	Advisories     []evaluator.Advisory
	ChartSVG       template.HTML
	Chart          []evaluator.ChartRow
	Record         evaluator.ResultRecord
}

// downloadForm carries the record back from the hidden fields of the result fragment
type downloadForm struct {
	evaluator.Observation
	Prediction string `form:"prediction"`
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = NewTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/evaluate", service.htmxEvaluateHandler)
	e.POST("/download", service.downloadHandler)
	e.GET("/chart.png", service.chartPNGHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/probe", service.probeHandler)
}

// indexHandler renders the form with default values and their evaluation
func (service *FrontendService) indexHandler(ctx echo.Context) error {
	observation := evaluator.DefaultObservation()
	result, err := service.coreService.Evaluate(ctx.Request().Context(), observation, nil)
	if err != nil {
		slog.Error("indexHandler: failed to evaluate defaults",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render page")
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, pageData{
		Accept:      strings.Join(service.config.Upload.AllowedExtensions, ","),
		Colors:      evaluator.Colors,
		Observation: observation,
		MinSize:     evaluator.MinSizeMM,
		MaxSize:     evaluator.MaxSizeMM,
		MinWeight:   evaluator.MinWeightG,
		MaxWeight:   evaluator.MaxWeightG,
		Result:      service.toResultView(result),
	})
}

// htmxEvaluateHandler re-evaluates the whole form on every change and returns the result fragment
func (service *FrontendService) htmxEvaluateHandler(ctx echo.Context) error {
	var observation evaluator.Observation
	if err := ctx.Bind(&observation); err != nil {
		slog.Warn("htmxEvaluateHandler: failed to bind form",
			"status", http.StatusBadRequest, "error", err)
		return service.renderError(ctx, http.StatusBadRequest, "Invalid form data")
	}
	if err := observation.Validate(); err != nil {
		slog.Warn("htmxEvaluateHandler: invalid observation",
			"status", http.StatusBadRequest, "error", err)
		return service.renderError(ctx, http.StatusBadRequest, err.Error())
	}

	image, filename, err := common.ReadUpload(ctx, "image", service.config.Upload.AllowedExtensions, service.config.Upload.MaxBytes)
	if err != nil {
		status := common.UploadStatus(err)
		slog.Warn("htmxEvaluateHandler: rejected upload",
			"status", status, "error", err, "filename", filename)
		return service.renderError(ctx, status, uploadErrorMessage(err))
	}

	result, err := service.coreService.Evaluate(ctx.Request().Context(), observation, image)
	if errors.Is(err, core.ErrInvalidImage) {
		slog.Warn("htmxEvaluateHandler: unreadable image",
			"status", http.StatusBadRequest, "error", err, "filename", filename)
		return service.renderError(ctx, http.StatusBadRequest, messageUnreadableImage)
	}
	if err != nil {
		slog.Error("htmxEvaluateHandler: evaluation failed",
			"status", http.StatusInternalServerError, "error", err)
		return service.renderError(ctx, http.StatusInternalServerError, "Failed to evaluate seed")
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, resultTemplate, service.toResultView(result))
}

// downloadHandler serves the one-row CSV for the values shown on the page
func (service *FrontendService) downloadHandler(ctx echo.Context) error {
	var form downloadForm
	if err := ctx.Bind(&form); err != nil {
		slog.Warn("downloadHandler: failed to bind form", "status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid form data")
	}
	if err := form.Observation.Validate(); err != nil {
		slog.Warn("downloadHandler: invalid observation", "status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, err.Error())
	}
	label, err := evaluator.ParseLabel(form.Prediction)
	if err != nil {
		slog.Warn("downloadHandler: invalid prediction", "status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid prediction")
	}

	form.Observation.ImagePresent = label != evaluator.LabelNone
	data, err := export.Encode(evaluator.BuildResultRecord(form.Observation, label))
	if err != nil {
		slog.Error("downloadHandler: failed to encode csv", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to export results")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, export.ContentDisposition())
	return ctx.Blob(http.StatusOK, export.ContentType, data)
}

// chartPNGHandler renders a freshly sampled chart on every request
func (service *FrontendService) chartPNGHandler(ctx echo.Context) error {
	data, err := chart.RenderPNG(service.coreService.QualityChart(), chart.Options{})
	if err != nil {
		slog.Error("chartPNGHandler: failed to render chart", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render chart")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

func (service *FrontendService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) toResultView(result *core.Result) resultView {
	view := resultView{
		ID:         result.ID,
		Advisories: result.Advisories,
		// values are generated numbers and fixed labels only
		ChartSVG: template.HTML(chart.RenderSVG(result.Chart, chart.Options{Labels: true})),
		Chart:    result.Chart,
		Record:   result.Record,
	}
	if len(result.PreviewPNG) > 0 {
		view.PreviewDataURI = template.URL("data:" + mimePNG + ";base64," + base64.StdEncoding.EncodeToString(result.PreviewPNG))
	}
	return view
}

func (service *FrontendService) renderError(ctx echo.Context, status int, message string) error {
	return ctx.Render(status, resultTemplate, resultView{Error: message})
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func uploadErrorMessage(err error) string {
	if errors.Is(err, common.ErrUploadTooLarge) {
		return "Uploaded file is too large"
	}
	if errors.Is(err, common.ErrEmptyUpload) {
		return messageUnreadableImage
	}
	if errors.Is(err, common.ErrUnsupportedExtension) {
		return "Only JPG, JPEG and PNG images are accepted"
	}
	return "Failed to read uploaded file"
}
