package evaluator

import (
	"fmt"
	"strings"
)

const (
	MinSizeMM   = 1
	MaxSizeMM   = 50
	MinWeightG  = 1
	MaxWeightG  = 20
	defaultSize = 10
	// defaultWeight mirrors the initial slider position of the form
	defaultWeight = 5
)

// Color is one of the four fixed seed colors offered by the form
type Color string

const (
	ColorLightBrown Color = "LightBrown"
	ColorDarkBrown  Color = "DarkBrown"
	ColorYellowish  Color = "Yellowish"
	ColorMixed      Color = "Mixed"
)

// Colors lists the selectable colors in display order
var Colors = []Color{ColorLightBrown, ColorDarkBrown, ColorYellowish, ColorMixed}

var colorLabels = map[Color]string{
	ColorLightBrown: "Light Brown",
	ColorDarkBrown:  "Dark Brown",
	ColorYellowish:  "Yellowish",
	ColorMixed:      "Mixed",
}

// Label returns the human readable name of the color, e.g. "Light Brown"
func (c Color) Label() string {
	if label, ok := colorLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c Color) IsValid() bool {
	_, ok := colorLabels[c]
	return ok
}

// ParseColor accepts either the code ("LightBrown") or the label ("Light Brown"),
// case-insensitive.
func ParseColor(value string) (Color, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	for _, c := range Colors {
		if strings.ToLower(string(c)) == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown seed color %q", value)
}

// Observation is one complete set of user-entered seed attributes for a single evaluation.
// It is built fresh for every render and passed by value.
type Observation struct {
	SizeMM       int   `json:"sizeMm" form:"size" validate:"min=1,max=50"`
	Color        Color `json:"color" form:"color" validate:"required,oneof=LightBrown DarkBrown Yellowish Mixed"`
	WeightG      int   `json:"weightG" form:"weight" validate:"min=1,max=20"`
	HasSpots     bool  `json:"hasSpots" form:"spots"`
	IsBroken     bool  `json:"isBroken" form:"broken"`
	ImagePresent bool  `json:"imagePresent" form:"-"`
}

// DefaultObservation returns the values the form shows before any user input
func DefaultObservation() Observation {
	return Observation{
		SizeMM:  defaultSize,
		Color:   ColorLightBrown,
		WeightG: defaultWeight,
	}
}

// Validate checks the field ranges. The form clamps these already; callers outside
// the form (API, CLI) rely on this check.
func (o Observation) Validate() error {
	if o.SizeMM < MinSizeMM || o.SizeMM > MaxSizeMM {
		return fmt.Errorf("seed size must be between %d and %d mm, got %d", MinSizeMM, MaxSizeMM, o.SizeMM)
	}
	if o.WeightG < MinWeightG || o.WeightG > MaxWeightG {
		return fmt.Errorf("seed weight must be between %d and %d g, got %d", MinWeightG, MaxWeightG, o.WeightG)
	}
	if !o.Color.IsValid() {
		return fmt.Errorf("unknown seed color %q", o.Color)
	}
	return nil
}
