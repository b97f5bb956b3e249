package evaluator

import (
	"fmt"
	"strings"
)

// Level is the display style of an advisory
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Field names the input an advisory was derived from
type Field string

const (
	FieldImage   Field = "image"
	FieldSize    Field = "size"
	FieldColor   Field = "color"
	FieldWeight  Field = "weight"
	FieldDefects Field = "defects"
)

// Advisory is a fixed human-readable message selected by a simple rule on one input.
// Detail carries an optional second line (only the mixed-color warning uses it).
type Advisory struct {
	Field  Field  `json:"field"`
	Level  Level  `json:"level"`
	Text   string `json:"text"`
	Detail string `json:"detail,omitempty"`
}

func (a Advisory) String() string {
	if a.Detail == "" {
		return a.Text
	}
	return a.Text + " " + a.Detail
}

const (
	smallSizeLimit   = 15
	largeSizeLimit   = 30
	lightWeightLimit = 5
	heavyWeightLimit = 12
)

const (
	MessageSmallSeed     = "Small size seed, could be weak."
	MessageMediumSeed    = "Medium size seed, looks healthy!"
	MessageLargeSeed     = "Large seed, check for defects."
	MessageMixedColor    = "Mixed color could indicate some bad seeds."
	MessageLightWeight   = "Lightweight seed, may not be strong."
	MessageAverageWeight = "Average weight, seems good."
	MessageHeavyWeight   = "Heavy seed, check for dryness or damage."
	MessageNoDefects     = "No visible defects."
	MessageUnavailable   = "Prediction unavailable."
)

// AdviseSize maps the seed size to one of three bands. Each band includes its lower bound.
func AdviseSize(sizeMM int) Advisory {
	switch {
	case sizeMM < smallSizeLimit:
		return Advisory{Field: FieldSize, Level: LevelInfo, Text: MessageSmallSeed}
	case sizeMM < largeSizeLimit:
		return Advisory{Field: FieldSize, Level: LevelSuccess, Text: MessageMediumSeed}
	default:
		return Advisory{Field: FieldSize, Level: LevelWarning, Text: MessageLargeSeed}
	}
}

// AdviseColor always echoes the selected color and warns about mixed colors
func AdviseColor(color Color) Advisory {
	advisory := Advisory{
		Field: FieldColor,
		Level: LevelInfo,
		Text:  fmt.Sprintf("Color selected: %s", color.Label()),
	}
	if color == ColorMixed {
		advisory.Level = LevelWarning
		advisory.Detail = MessageMixedColor
	}
	return advisory
}

func AdviseWeight(weightG int) Advisory {
	switch {
	case weightG < lightWeightLimit:
		return Advisory{Field: FieldWeight, Level: LevelInfo, Text: MessageLightWeight}
	case weightG < heavyWeightLimit:
		return Advisory{Field: FieldWeight, Level: LevelSuccess, Text: MessageAverageWeight}
	default:
		return Advisory{Field: FieldWeight, Level: LevelWarning, Text: MessageHeavyWeight}
	}
}

// AdviseDefects names the flagged defects in the fixed order Spots, Broken
func AdviseDefects(hasSpots, isBroken bool) Advisory {
	var issues []string
	if hasSpots {
		issues = append(issues, "Spots")
	}
	if isBroken {
		issues = append(issues, "Broken")
	}
	if len(issues) == 0 {
		return Advisory{Field: FieldDefects, Level: LevelSuccess, Text: MessageNoDefects}
	}
	return Advisory{
		Field: FieldDefects,
		Level: LevelWarning,
		Text:  "Seed issues detected: " + strings.Join(issues, ", "),
	}
}

// AdvisePrediction renders the prediction line shown next to the uploaded image
func AdvisePrediction(label Label) Advisory {
	if label == LabelNone {
		return Advisory{Field: FieldImage, Level: LevelWarning, Text: MessageUnavailable}
	}
	return Advisory{Field: FieldImage, Level: LevelSuccess, Text: "Prediction Result: " + string(label)}
}
