package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

func sampleRecord(size int) evaluator.ResultRecord {
	return evaluator.ResultRecord{
		SizeMM:     size,
		Color:      evaluator.ColorMixed,
		WeightG:    3,
		HasSpots:   true,
		IsBroken:   false,
		Prediction: "Good",
	}
}

// testStoreContract exercises the behavior every DatabaseService backend shares
func testStoreContract(t *testing.T, ds DatabaseService) {
	t.Helper()
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		if !ds.DoesDatabaseExist(ctx) {
			t.Fatalf("expected DoesDatabaseExist to return true")
		}
	})

	t.Run("save and get", func(t *testing.T) {
		saved, err := ds.SaveEvaluation(ctx, sampleRecord(10))
		if err != nil {
			t.Fatalf("SaveEvaluation error: %v", err)
		}
		if saved.ID == "" {
			t.Fatalf("expected non-empty ID")
		}

		got, err := ds.GetEvaluationByID(ctx, saved.ID)
		if err != nil {
			t.Fatalf("GetEvaluationByID error: %v", err)
		}
		if got.Record != sampleRecord(10) {
			t.Errorf("record mismatch: got %+v", got.Record)
		}
		if !got.CreatedAt.Equal(saved.CreatedAt) {
			t.Errorf("expected created at %v, got %v", saved.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := ds.GetEvaluationByID(ctx, "non-existent-id")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := ds.DeleteEvaluation(ctx, "non-existent-id"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on delete, got %v", err)
		}
	})

	t.Run("list newest first and delete", func(t *testing.T) {
		var ids []string
		for size := 20; size < 23; size++ {
			saved, err := ds.SaveEvaluation(ctx, sampleRecord(size))
			if err != nil {
				t.Fatalf("SaveEvaluation error: %v", err)
			}
			ids = append(ids, saved.ID)
			time.Sleep(2 * time.Millisecond)
		}

		listed, err := ds.ListEvaluations(ctx, 2)
		if err != nil {
			t.Fatalf("ListEvaluations error: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 evaluations, got %d", len(listed))
		}
		if listed[0].ID != ids[2] || listed[1].ID != ids[1] {
			t.Fatalf("expected newest first [%s %s], got [%s %s]", ids[2], ids[1], listed[0].ID, listed[1].ID)
		}

		if err := ds.DeleteEvaluation(ctx, ids[2]); err != nil {
			t.Fatalf("DeleteEvaluation error: %v", err)
		}
		listed, err = ds.ListEvaluations(ctx, 1)
		if err != nil {
			t.Fatalf("ListEvaluations error: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != ids[1] {
			t.Fatalf("expected %s after delete, got %+v", ids[1], listed)
		}
	})

	t.Run("non-positive limit", func(t *testing.T) {
		listed, err := ds.ListEvaluations(ctx, 0)
		if err != nil {
			t.Fatalf("ListEvaluations error: %v", err)
		}
		if len(listed) != 0 {
			t.Fatalf("expected no evaluations, got %d", len(listed))
		}
	})
}
