package backend

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jo-hoe/peanutclassifier/internal/backend/chart"
	"github.com/jo-hoe/peanutclassifier/internal/backend/database"
	"github.com/jo-hoe/peanutclassifier/internal/backend/export"
	"github.com/jo-hoe/peanutclassifier/internal/common"
	"github.com/jo-hoe/peanutclassifier/internal/core"
	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	"github.com/labstack/echo/v4"
)

const (
	maxListLimit = 500

	messageUnreadableImage = "Uploaded file is not a readable image"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

// EvaluationResponse is the JSON form of core.Result with the preview inlined
type EvaluationResponse struct {
	*core.Result
	// PreviewPNG is the base64 encoded thumbnail, empty without an image
	PreviewPNG string `json:"previewPng,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/evaluate", s.evaluateHandler)
	api.POST("/evaluate/upload", s.evaluateUploadHandler)
	api.GET("/chart", s.chartHandler)
	api.GET("/health", s.healthHandler)

	api.GET("/evaluations", s.listEvaluationsHandler)
	api.GET("/evaluations/:id", s.getEvaluationHandler)
	api.GET("/evaluations/:id/csv", s.getEvaluationCSVHandler)
	api.DELETE("/evaluations/:id", s.deleteEvaluationHandler)
}

// evaluateHandler takes a JSON observation without an image
func (s *APIService) evaluateHandler(ctx echo.Context) error {
	var observation evaluator.Observation
	if err := ctx.Bind(&observation); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&observation); err != nil {
		return err
	}
	return s.evaluate(ctx, observation, nil)
}

// evaluateUploadHandler takes the same multipart fields as the web form
func (s *APIService) evaluateUploadHandler(ctx echo.Context) error {
	var observation evaluator.Observation
	if err := ctx.Bind(&observation); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "invalid form data")
	}
	if err := ctx.Validate(&observation); err != nil {
		return err
	}

	image, filename, err := common.ReadUpload(ctx, "image", s.config.Upload.AllowedExtensions, s.config.Upload.MaxBytes)
	if err != nil {
		status := common.UploadStatus(err)
		slog.Warn("evaluateUploadHandler: rejected upload", "status", status, "error", err, "filename", filename)
		if errors.Is(err, common.ErrEmptyUpload) {
			return jsonError(ctx, status, messageUnreadableImage)
		}
		return jsonError(ctx, status, err.Error())
	}
	return s.evaluate(ctx, observation, image)
}

func (s *APIService) evaluate(ctx echo.Context, observation evaluator.Observation, image []byte) error {
	result, err := s.coreService.Evaluate(ctx.Request().Context(), observation, image)
	switch {
	case errors.Is(err, core.ErrInvalidImage):
		return jsonError(ctx, http.StatusBadRequest, messageUnreadableImage)
	case errors.Is(err, core.ErrInvalidObservation):
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.Error("evaluate: evaluation failed", "status", http.StatusInternalServerError, "error", err)
		return jsonError(ctx, http.StatusInternalServerError, "evaluation failed")
	}

	response := EvaluationResponse{Result: result}
	if len(result.PreviewPNG) > 0 {
		response.PreviewPNG = base64.StdEncoding.EncodeToString(result.PreviewPNG)
	}
	return ctx.JSON(http.StatusOK, response)
}

// chartHandler returns fresh rows as JSON, or rendered with ?format=svg|png
func (s *APIService) chartHandler(ctx echo.Context) error {
	rows := s.coreService.QualityChart()

	switch ctx.QueryParam("format") {
	case "", "json":
		return ctx.JSON(http.StatusOK, rows)
	case "svg":
		return ctx.Blob(http.StatusOK, "image/svg+xml", []byte(chart.RenderSVG(rows, chart.Options{Labels: true})))
	case "png":
		data, err := chart.RenderPNG(rows, chart.Options{})
		if err != nil {
			slog.Error("chartHandler: failed to render chart", "status", http.StatusInternalServerError, "error", err)
			return jsonError(ctx, http.StatusInternalServerError, "failed to render chart")
		}
		return ctx.Blob(http.StatusOK, "image/png", data)
	default:
		return jsonError(ctx, http.StatusBadRequest, "format must be json, svg or png")
	}
}

func (s *APIService) healthHandler(ctx echo.Context) error {
	if err := s.coreService.CheckClassifier(ctx.Request().Context()); err != nil {
		slog.Warn("healthHandler: classifier unavailable", "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "classifier": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIService) listEvaluationsHandler(ctx echo.Context) error {
	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			return jsonError(ctx, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxListLimit))
		}
		limit = parsed
	}

	evaluations, err := s.coreService.ListEvaluations(ctx.Request().Context(), limit)
	if err != nil {
		return s.historyError(ctx, "listEvaluationsHandler", err)
	}
	return ctx.JSON(http.StatusOK, evaluations)
}

func (s *APIService) getEvaluationHandler(ctx echo.Context) error {
	stored, err := s.coreService.GetEvaluation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return s.historyError(ctx, "getEvaluationHandler", err)
	}
	return ctx.JSON(http.StatusOK, stored)
}

func (s *APIService) getEvaluationCSVHandler(ctx echo.Context) error {
	stored, err := s.coreService.GetEvaluation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return s.historyError(ctx, "getEvaluationCSVHandler", err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, stored.Record); err != nil {
		slog.Error("getEvaluationCSVHandler: failed to encode csv", "status", http.StatusInternalServerError, "error", err)
		return jsonError(ctx, http.StatusInternalServerError, "failed to export evaluation")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, export.ContentDisposition())
	return ctx.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (s *APIService) deleteEvaluationHandler(ctx echo.Context) error {
	if err := s.coreService.DeleteEvaluation(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return s.historyError(ctx, "deleteEvaluationHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) historyError(ctx echo.Context, handler string, err error) error {
	switch {
	case errors.Is(err, core.ErrHistoryDisabled):
		return jsonError(ctx, http.StatusNotFound, "evaluation history is disabled")
	case errors.Is(err, database.ErrNotFound):
		return jsonError(ctx, http.StatusNotFound, "evaluation not found")
	default:
		slog.Error(handler+": history request failed", "status", http.StatusInternalServerError, "error", err)
		return jsonError(ctx, http.StatusInternalServerError, "history request failed")
	}
}

func jsonError(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, errorResponse{Error: message})
}
