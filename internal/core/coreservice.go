package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/peanutclassifier/internal/backend/commandstructure"
	"github.com/jo-hoe/peanutclassifier/internal/backend/database"
	"github.com/jo-hoe/peanutclassifier/internal/backend/inference"
	"github.com/jo-hoe/peanutclassifier/internal/evaluator"

	// registers the upload commands in the default registry
	_ "github.com/jo-hoe/peanutclassifier/internal/backend/commands"
)

var (
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidImage       = errors.New("invalid image")
	ErrHistoryDisabled    = errors.New("evaluation history is disabled")
)

// Result is one evaluation as served to the web page, the API and the CLI
type Result struct {
	*evaluator.Evaluation
	// ID is set when the record was saved to the history
	ID string `json:"id,omitempty"`
	// PreviewPNG is the uploaded image after the upload pipeline
	PreviewPNG []byte `json:"-"`
}

type healthChecker interface {
	CheckHealth(ctx context.Context) error
}

type CoreService struct {
	config          *ServiceConfig
	evaluator       *evaluator.Evaluator
	classifier      evaluator.Classifier
	uploadPipeline  *commandstructure.CommandInvoker
	databaseService database.DatabaseService
}

func NewCoreService(ctx context.Context, config *ServiceConfig) (*CoreService, error) {
	var random evaluator.Random = evaluator.DefaultRandom()
	if config.Classifier.Seed != 0 {
		random = evaluator.NewLockedRandom(config.Classifier.Seed)
	}

	classifier, err := newClassifier(config, random)
	if err != nil {
		return nil, err
	}

	pipeline, err := commandstructure.BuildInvoker(nil, config.PipelineCommands())
	if err != nil {
		return nil, fmt.Errorf("failed to build upload pipeline: %w", err)
	}
	slog.Info("upload pipeline configured", "commands", pipeline.Names())

	databaseService, err := getDatabaseService(ctx, config)
	if err != nil {
		return nil, err
	}

	return &CoreService{
		config:          config,
		evaluator:       evaluator.New(classifier, random),
		classifier:      classifier,
		uploadPipeline:  pipeline,
		databaseService: databaseService,
	}, nil
}

func newClassifier(config *ServiceConfig, random evaluator.Random) (evaluator.Classifier, error) {
	switch config.Classifier.Type {
	case ClassifierRandom, "":
		return evaluator.NewRandomClassifier(random), nil
	case ClassifierRemote:
		slog.Info("using remote classifier", "inference_url", config.Classifier.InferenceURL)
		return inference.NewRemoteClassifier(
			config.Classifier.InferenceURL,
			config.Classifier.HealthURL,
			config.Classifier.Timeout,
		), nil
	default:
		return nil, fmt.Errorf("unsupported classifier type: %s", config.Classifier.Type)
	}
}

func getDatabaseService(ctx context.Context, config *ServiceConfig) (database.DatabaseService, error) {
	if config.Database.Type == "" {
		slog.Info("evaluation history disabled")
		return nil, nil
	}
	databaseService, err := database.NewDatabase(ctx, config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// Evaluate runs one observation. The image is optional; when present it goes through the
// upload pipeline first and a pipeline failure rejects the whole request. The classifier
// receives the original bytes, not the preview.
func (service *CoreService) Evaluate(ctx context.Context, observation evaluator.Observation, image []byte) (*Result, error) {
	observation.ImagePresent = len(image) > 0
	if err := observation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidObservation, err)
	}

	result := &Result{}
	if observation.ImagePresent {
		preview, err := service.BuildPreview(image)
		if err != nil {
			return nil, err
		}
		result.PreviewPNG = preview
	}

	evaluation, err := service.evaluator.Evaluate(ctx, observation, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidObservation, err)
	}
	result.Evaluation = evaluation

	if service.databaseService != nil {
		stored, err := service.databaseService.SaveEvaluation(ctx, evaluation.Record)
		if err != nil {
			// history is best effort and must not hide the result from the user
			slog.Error("failed to save evaluation", "error", err)
		} else {
			result.ID = stored.ID
		}
	}

	slog.Debug("evaluation completed",
		"id", result.ID,
		"image_present", observation.ImagePresent,
		"prediction", evaluation.Prediction)
	return result, nil
}

// BuildPreview runs the upload pipeline and returns the PNG shown next to the prediction
func (service *CoreService) BuildPreview(image []byte) ([]byte, error) {
	preview, err := service.uploadPipeline.Execute(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return preview, nil
}

// QualityChart samples a fresh chart without running an evaluation
func (service *CoreService) QualityChart() []evaluator.ChartRow {
	return service.evaluator.GenerateQualityChart()
}

func (service *CoreService) HistoryEnabled() bool {
	return service.databaseService != nil
}

func (service *CoreService) GetEvaluation(ctx context.Context, id string) (*database.StoredEvaluation, error) {
	if service.databaseService == nil {
		return nil, ErrHistoryDisabled
	}
	return service.databaseService.GetEvaluationByID(ctx, id)
}

// ListEvaluations returns the newest evaluations. A non-positive limit uses the configured default.
func (service *CoreService) ListEvaluations(ctx context.Context, limit int) ([]*database.StoredEvaluation, error) {
	if service.databaseService == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = service.config.HistoryLimit
	}
	return service.databaseService.ListEvaluations(ctx, limit)
}

func (service *CoreService) DeleteEvaluation(ctx context.Context, id string) error {
	if service.databaseService == nil {
		return ErrHistoryDisabled
	}
	return service.databaseService.DeleteEvaluation(ctx, id)
}

// CheckClassifier reports whether the configured classifier can serve predictions.
// The random classifier is always ready.
func (service *CoreService) CheckClassifier(ctx context.Context) error {
	checker, ok := service.classifier.(healthChecker)
	if !ok {
		return nil
	}
	return checker.CheckHealth(ctx)
}

func (service *CoreService) Close() error {
	if service.databaseService == nil {
		return nil
	}
	return service.databaseService.Close()
}
