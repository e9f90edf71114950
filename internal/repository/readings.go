package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// ReadingsRepository 采样历史仓库（vitals_readings 表，只追加）
// 每条采样一行，Append 是单条 INSERT：原子追加，不做读-改-写，
// 并发摄取不会丢数据，按患者的串行化交给 PostgreSQL
type ReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingsRepository 创建采样仓库
func NewReadingsRepository(db *sql.DB, logger *zap.Logger) *ReadingsRepository {
	return &ReadingsRepository{
		db:     db,
		logger: logger,
	}
}

// Append 追加一条采样（入库前校验，不合法直接拒绝）
func (r *ReadingsRepository) Append(ctx context.Context, reading *models.Reading) error {
	if err := reading.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO vitals_readings (
			patient_id,
			taken_at,
			heart_rate,
			systolic_bp,
			diastolic_bp,
			glucose,
			sleep_hours,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		reading.PatientID,
		reading.Timestamp.UTC(),
		nullFloat(reading.HeartRate),
		nullFloat(reading.SystolicBP),
		nullFloat(reading.DiastolicBP),
		nullFloat(reading.Glucose),
		nullFloat(reading.SleepHours),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to append reading: %v", models.ErrStore, err)
	}

	return nil
}

// QueryWindow 查询某患者 taken_at >= since 的采样，按时间降序返回（规范顺序）
// 调用方需要升序视图时在内存中重排
// 超过 context 截止时间返回 StoreTimeout，不返回部分数据
func (r *ReadingsRepository) QueryWindow(ctx context.Context, patientID string, since time.Time) ([]models.Reading, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", models.ErrValidation)
	}

	query := `
		SELECT
			patient_id,
			taken_at,
			heart_rate,
			systolic_bp,
			diastolic_bp,
			glucose,
			sleep_hours
		FROM vitals_readings
		WHERE patient_id = $1
		  AND taken_at >= $2
		ORDER BY taken_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, since.UTC())
	if err != nil {
		return nil, r.mapQueryError(ctx, err)
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var reading models.Reading
		var heartRate, systolicBP, diastolicBP, glucose, sleepHours sql.NullFloat64

		if err := rows.Scan(
			&reading.PatientID,
			&reading.Timestamp,
			&heartRate,
			&systolicBP,
			&diastolicBP,
			&glucose,
			&sleepHours,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan reading: %v", models.ErrStore, err)
		}

		reading.HeartRate = floatFromNull(heartRate)
		reading.SystolicBP = floatFromNull(systolicBP)
		reading.DiastolicBP = floatFromNull(diastolicBP)
		reading.Glucose = floatFromNull(glucose)
		reading.SleepHours = floatFromNull(sleepHours)

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapQueryError(ctx, err)
	}

	return readings, nil
}

// PruneBefore 删除 taken_at 早于 cutoff 的采样（保留期清理，防止无界增长）
func (r *ReadingsRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM vitals_readings WHERE taken_at < $1`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune readings: %v", models.ErrStore, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count pruned readings: %v", models.ErrStore, err)
	}

	return deleted, nil
}

// mapQueryError 查询超时与一般存储错误区分开
func (r *ReadingsRepository) mapQueryError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: window query exceeded deadline", models.ErrStoreTimeout)
	}
	return fmt.Errorf("%w: failed to query readings: %v", models.ErrStore, err)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
