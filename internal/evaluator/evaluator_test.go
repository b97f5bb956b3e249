package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, []byte) (Label, error) {
	return LabelNone, errors.New("model offline")
}

type fixedClassifier struct {
	label Label
	calls int
}

func (c *fixedClassifier) Classify(context.Context, []byte) (Label, error) {
	c.calls++
	return c.label, nil
}

func TestClassifyImage_NoImage(t *testing.T) {
	random := NewLockedRandom(1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, LabelNone, ClassifyImage(random, false))
	}
}

func TestClassifyImage_ProducesBothLabels(t *testing.T) {
	random := NewLockedRandom(42)
	seen := map[Label]int{}
	for i := 0; i < 1000; i++ {
		label := ClassifyImage(random, true)
		require.Contains(t, []Label{LabelGood, LabelBad}, label)
		seen[label]++
	}
	assert.Positive(t, seen[LabelGood])
	assert.Positive(t, seen[LabelBad])
}

func TestRandomClassifier_IgnoresImage(t *testing.T) {
	classifier := NewRandomClassifier(nil)
	label, err := classifier.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, []Label{LabelGood, LabelBad}, label)
}

func TestGenerateQualityChart_Ranges(t *testing.T) {
	random := NewLockedRandom(7)
	for i := 0; i < 200; i++ {
		rows := GenerateQualityChart(random)
		require.Len(t, rows, ChartRows)
		for _, row := range rows {
			assert.GreaterOrEqual(t, row.Good, MinGoodSeeds)
			assert.LessOrEqual(t, row.Good, MaxGoodSeeds)
			assert.GreaterOrEqual(t, row.Bad, MinBadSeeds)
			assert.LessOrEqual(t, row.Bad, MaxBadSeeds)
		}
	}
}

func TestBuildResultRecord_NoImageHasEmptyPrediction(t *testing.T) {
	observation := DefaultObservation()
	for _, label := range []Label{LabelNone, LabelGood, LabelBad} {
		record := BuildResultRecord(observation, label)
		assert.Empty(t, record.Prediction)
	}

	observation.ImagePresent = true
	assert.Equal(t, "Bad", BuildResultRecord(observation, LabelBad).Prediction)
}

func TestEvaluate_Scenario(t *testing.T) {
	classifier := &fixedClassifier{label: LabelGood}
	e := New(classifier, NewLockedRandom(3))

	observation := Observation{
		SizeMM:   10,
		Color:    ColorMixed,
		WeightG:  3,
		HasSpots: true,
	}
	result, err := e.Evaluate(context.Background(), observation, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, classifier.calls, "classifier must not run without an image")
	assert.Equal(t, LabelNone, result.Prediction)
	_, hasImageAdvisory := result.Advisory(FieldImage)
	assert.False(t, hasImageAdvisory)

	size, _ := result.Advisory(FieldSize)
	assert.Equal(t, MessageSmallSeed, size.Text)
	color, _ := result.Advisory(FieldColor)
	assert.Equal(t, "Color selected: Mixed", color.Text)
	assert.Equal(t, MessageMixedColor, color.Detail)
	weight, _ := result.Advisory(FieldWeight)
	assert.Equal(t, MessageLightWeight, weight.Text)
	defects, _ := result.Advisory(FieldDefects)
	assert.Equal(t, "Seed issues detected: Spots", defects.Text)

	assert.Equal(t, ResultRecord{
		SizeMM:   10,
		Color:    ColorMixed,
		WeightG:  3,
		HasSpots: true,
		IsBroken: false,
	}, result.Record)
	assert.Len(t, result.Chart, ChartRows)
}

func TestEvaluate_WithImage(t *testing.T) {
	classifier := &fixedClassifier{label: LabelBad}
	e := New(classifier, nil)

	observation := DefaultObservation()
	observation.ImagePresent = true
	result, err := e.Evaluate(context.Background(), observation, []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, LabelBad, result.Prediction)
	assert.Equal(t, "Bad", result.Record.Prediction)
	prediction, ok := result.Advisory(FieldImage)
	require.True(t, ok)
	assert.Equal(t, "Prediction Result: Bad", prediction.Text)
	assert.Len(t, result.Advisories, 5)
}

func TestEvaluate_ClassifierFailureDegrades(t *testing.T) {
	e := New(failingClassifier{}, nil)

	observation := DefaultObservation()
	observation.ImagePresent = true
	result, err := e.Evaluate(context.Background(), observation, []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, LabelNone, result.Prediction)
	assert.Equal(t, "model offline", result.PredictionError)
	assert.Empty(t, result.Record.Prediction)
	prediction, _ := result.Advisory(FieldImage)
	assert.Equal(t, MessageUnavailable, prediction.Text)
}

func TestEvaluate_RejectsInvalidObservation(t *testing.T) {
	e := New(nil, nil)
	_, err := e.Evaluate(context.Background(), Observation{SizeMM: 51, Color: ColorMixed, WeightG: 3}, nil)
	assert.Error(t, err)
}
