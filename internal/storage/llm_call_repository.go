package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/etf-lens/internal/model"
)

// LLMCallRepository handles persistence of LLM call tracking.
// It satisfies llm.CallRecorder.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	CountBySubject(ctx context.Context, subject string) (int64, error)
	Stats(ctx context.Context) ([]model.OperationStats, error)
}

type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

// NewLLMCallRepository creates a new SQLite-backed LLMCallRepository.
func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (subject, operation, provider, model, success, duration_ms)
		VALUES (:subject, :operation, :provider, :model, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating llm call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) CountBySubject(ctx context.Context, subject string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls WHERE subject = ?", subject)
	return count, err
}

// Stats aggregates calls per operation, ordered by operation name.
func (r *sqliteLLMCallRepository) Stats(ctx context.Context) ([]model.OperationStats, error) {
	var stats []model.OperationStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT operation,
		       COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS succeeded,
		       COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failed
		FROM llm_calls
		GROUP BY operation
		ORDER BY operation
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregating llm calls: %w", err)
	}
	return stats, nil
}
