package database

import (
	"context"
	"errors"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

// ErrNotFound is returned when no evaluation exists for an ID
var ErrNotFound = errors.New("evaluation not found")

// StoredEvaluation is one saved result record
type StoredEvaluation struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"createdAt"`
	Record    evaluator.ResultRecord `json:"record"`
}

type DatabaseService interface {
	// CreateDatabase prepares the schema; it is idempotent
	CreateDatabase(ctx context.Context) error
	DoesDatabaseExist(ctx context.Context) bool
	Close() error

	SaveEvaluation(ctx context.Context, record evaluator.ResultRecord) (*StoredEvaluation, error)
	GetEvaluationByID(ctx context.Context, id string) (*StoredEvaluation, error)
	// ListEvaluations returns up to limit evaluations, newest first
	ListEvaluations(ctx context.Context, limit int) ([]*StoredEvaluation, error)
	DeleteEvaluation(ctx context.Context, id string) error
}
