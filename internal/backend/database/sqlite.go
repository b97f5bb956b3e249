package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
	_ "modernc.org/sqlite"
)

const evaluationColumns = "id, size_mm, color, weight_g, has_spots, is_broken, prediction, created_at"

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// Each connection to ":memory:" is its own database, so keep exactly one
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		size_mm INTEGER NOT NULL,
		color TEXT NOT NULL,
		weight_g INTEGER NOT NULL,
		has_spots INTEGER NOT NULL,
		is_broken INTEGER NOT NULL,
		prediction TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations (created_at)`)
	return err
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DoesDatabaseExist pings the database; SQLite creates the file on first connect
func (s *SQLiteDatabase) DoesDatabaseExist(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *SQLiteDatabase) SaveEvaluation(ctx context.Context, record evaluator.ResultRecord) (*StoredEvaluation, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	stored := &StoredEvaluation{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Record:    record,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO evaluations ("+evaluationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID,
		record.SizeMM,
		string(record.Color),
		record.WeightG,
		record.HasSpots,
		record.IsBroken,
		record.Prediction,
		stored.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return stored, nil
}

func (s *SQLiteDatabase) GetEvaluationByID(ctx context.Context, id string) (*StoredEvaluation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+evaluationColumns+" FROM evaluations WHERE id = ?", id)
	stored, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *SQLiteDatabase) ListEvaluations(ctx context.Context, limit int) ([]*StoredEvaluation, error) {
	if limit <= 0 {
		return []*StoredEvaluation{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+evaluationColumns+" FROM evaluations ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	evaluations := []*StoredEvaluation{}
	for rows.Next() {
		stored, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, stored)
	}
	return evaluations, rows.Err()
}

func (s *SQLiteDatabase) DeleteEvaluation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM evaluations WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*StoredEvaluation, error) {
	var (
		stored    StoredEvaluation
		color     string
		createdAt int64
	)
	err := row.Scan(
		&stored.ID,
		&stored.Record.SizeMM,
		&color,
		&stored.Record.WeightG,
		&stored.Record.HasSpots,
		&stored.Record.IsBroken,
		&stored.Record.Prediction,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	stored.Record.Color = evaluator.Color(color)
	stored.CreatedAt = time.Unix(0, createdAt).UTC()
	return &stored, nil
}
