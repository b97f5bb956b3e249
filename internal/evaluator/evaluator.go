// Package evaluator turns one seed observation into a prediction, per-field advisories,
// a random quality chart and an exportable record. Every call is independent; nothing is
// carried between evaluations.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
)

// Evaluation is everything one render of the page shows
type Evaluation struct {
	Observation     Observation  `json:"observation"`
	Prediction      Label        `json:"prediction"`
	PredictionError string       `json:"predictionError,omitempty"`
	Advisories      []Advisory   `json:"advisories"`
	Chart           []ChartRow   `json:"chart"`
	Record          ResultRecord `json:"record"`
}

// Advisory returns the message derived from the given field, if any
func (e *Evaluation) Advisory(field Field) (Advisory, bool) {
	for _, a := range e.Advisories {
		if a.Field == field {
			return a, true
		}
	}
	return Advisory{}, false
}

type Evaluator struct {
	classifier Classifier
	random     Random
}

// New creates an evaluator. A nil classifier selects RandomClassifier and a nil random
// selects DefaultRandom.
func New(classifier Classifier, random Random) *Evaluator {
	if random == nil {
		random = DefaultRandom()
	}
	if classifier == nil {
		classifier = NewRandomClassifier(random)
	}
	return &Evaluator{
		classifier: classifier,
		random:     random,
	}
}

// Evaluate runs every step for one observation. Only an invalid observation is an error;
// a failing classifier leaves the prediction empty and is reported in PredictionError.
func (e *Evaluator) Evaluate(ctx context.Context, observation Observation, image []byte) (*Evaluation, error) {
	if err := observation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observation: %w", err)
	}

	result := &Evaluation{Observation: observation}

	if observation.ImagePresent {
		label, err := e.classifier.Classify(ctx, image)
		if err != nil {
			slog.Warn("classifier failed; rendering without prediction", "error", err)
			result.PredictionError = err.Error()
			label = LabelNone
		}
		result.Prediction = label
		result.Advisories = append(result.Advisories, AdvisePrediction(label))
	}

	result.Advisories = append(result.Advisories,
		AdviseSize(observation.SizeMM),
		AdviseColor(observation.Color),
		AdviseWeight(observation.WeightG),
		AdviseDefects(observation.HasSpots, observation.IsBroken),
	)
	result.Chart = GenerateQualityChart(e.random)
	result.Record = BuildResultRecord(observation, result.Prediction)

	return result, nil
}

// GenerateQualityChart samples a chart from the evaluator's random source
func (e *Evaluator) GenerateQualityChart() []ChartRow {
	return GenerateQualityChart(e.random)
}
