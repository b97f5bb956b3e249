package evaluator

import (
	"context"
	"fmt"
	"strings"
)

// Label is the binary quality prediction for an uploaded image
type Label string

const (
	// LabelNone means no image was uploaded and no prediction was made
	LabelNone Label = ""
	LabelGood Label = "Good"
	LabelBad  Label = "Bad"
)

// ParseLabel accepts "Good", "Bad" (case-insensitive) or the empty string
func ParseLabel(value string) (Label, error) {
	switch {
	case value == "":
		return LabelNone, nil
	case strings.EqualFold(value, string(LabelGood)):
		return LabelGood, nil
	case strings.EqualFold(value, string(LabelBad)):
		return LabelBad, nil
	}
	return LabelNone, fmt.Errorf("unknown prediction label %q", value)
}

// Classifier produces a prediction for an uploaded seed image.
// Implementations may call out to a real model; the default is RandomClassifier.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Label, error)
}

// ClassifyImage returns LabelNone without an image, otherwise Good or Bad with equal
// probability. The outcome never depends on the image or any other input.
func ClassifyImage(random Random, imagePresent bool) Label {
	if !imagePresent {
		return LabelNone
	}
	if random.IntN(2) == 0 {
		return LabelGood
	}
	return LabelBad
}

// RandomClassifier stands in for a model: it ignores the image content entirely
type RandomClassifier struct {
	random Random
}

func NewRandomClassifier(random Random) *RandomClassifier {
	if random == nil {
		random = DefaultRandom()
	}
	return &RandomClassifier{random: random}
}

func (c *RandomClassifier) Classify(_ context.Context, _ []byte) (Label, error) {
	return ClassifyImage(c.random, true), nil
}
