package evaluator

const (
	ChartRows = 5

	MinGoodSeeds = 5
	MaxGoodSeeds = 50
	MinBadSeeds  = 1
	MaxBadSeeds  = 30
)

// ChartRow is one bar group of the quality chart
type ChartRow struct {
	Good int `json:"goodSeeds"`
	Bad  int `json:"badSeeds"`
}

// GenerateQualityChart samples ChartRows rows independently of any input
func GenerateQualityChart(random Random) []ChartRow {
	if random == nil {
		random = DefaultRandom()
	}
	rows := make([]ChartRow, ChartRows)
	for i := range rows {
		rows[i] = ChartRow{
			Good: intBetween(random, MinGoodSeeds, MaxGoodSeeds),
			Bad:  intBetween(random, MinBadSeeds, MaxBadSeeds),
		}
	}
	return rows
}
