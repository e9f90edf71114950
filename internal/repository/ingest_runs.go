package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// IngestRun 一次摄取任务的运行记录（ingest_runs 表）
type IngestRun struct {
	JobName      string     `json:"job_name" db:"job_name"`
	PatientID    string     `json:"patient_id" db:"patient_id"`
	Status       string     `json:"status" db:"status"` // success, failure
	RunAt        time.Time  `json:"run_at" db:"run_at"`
	DurationMs   int64      `json:"duration_ms" db:"duration_ms"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
}

const (
	IngestStatusSuccess = "success"
	IngestStatusFailure = "failure"
)

// IngestRunsRepository 摄取运行日志仓库
type IngestRunsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIngestRunsRepository 创建摄取运行日志仓库
func NewIngestRunsRepository(db *sql.DB, logger *zap.Logger) *IngestRunsRepository {
	return &IngestRunsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateIngestRun 写入一条运行记录
func (r *IngestRunsRepository) CreateIngestRun(ctx context.Context, run *IngestRun) error {
	if run.JobName == "" {
		return fmt.Errorf("job_name is required")
	}

	query := `
		INSERT INTO ingest_runs (
			job_name,
			patient_id,
			status,
			run_at,
			duration_ms,
			error_message,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	var errMsg sql.NullString
	if run.ErrorMessage != nil {
		errMsg = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		run.JobName,
		run.PatientID,
		run.Status,
		run.RunAt.UTC(),
		run.DurationMs,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingest run: %w", err)
	}

	return nil
}
