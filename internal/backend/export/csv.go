package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

const (
	FileName    = "peanut_seed_results.csv"
	ContentType = "text/csv"
)

// Header is the exact column layout of the exported results file
var Header = []string{
	"Seed Size (mm)",
	"Seed Color",
	"Seed Weight (g)",
	"Has Spots",
	"Is Broken",
	"Prediction",
}

// Row converts a record to CSV fields. Booleans are written as True/False and the
// color as its display label.
func Row(record evaluator.ResultRecord) []string {
	return []string{
		strconv.Itoa(record.SizeMM),
		record.Color.Label(),
		strconv.Itoa(record.WeightG),
		formatBool(record.HasSpots),
		formatBool(record.IsBroken),
		record.Prediction,
	}
}

// WriteCSV writes the header followed by one row per record
func WriteCSV(w io.Writer, records ...evaluator.ResultRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(Row(record)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Encode returns the single-row results file for one record
func Encode(record evaluator.ResultRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentDisposition is the header value that makes browsers save the file
func ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", FileName)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
