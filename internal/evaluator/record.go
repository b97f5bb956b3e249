package evaluator

// ResultRecord is the flat, exportable form of one observation plus its prediction
type ResultRecord struct {
	SizeMM     int    `json:"sizeMm"`
	Color      Color  `json:"color"`
	WeightG    int    `json:"weightG"`
	HasSpots   bool   `json:"hasSpots"`
	IsBroken   bool   `json:"isBroken"`
	Prediction string `json:"prediction"`
}

// BuildResultRecord flattens the observation. Prediction stays empty without an image.
func BuildResultRecord(observation Observation, label Label) ResultRecord {
	record := ResultRecord{
		SizeMM:   observation.SizeMM,
		Color:    observation.Color,
		WeightG:  observation.WeightG,
		HasSpots: observation.HasSpots,
		IsBroken: observation.IsBroken,
	}
	if observation.ImagePresent {
		record.Prediction = string(label)
	}
	return record
}
