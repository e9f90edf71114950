package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateNotification_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationsRepository(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &NotificationRecord{
		PatientID:  "patient-1",
		EpisodeKey: "glucose+heartRate",
		Channel:    "email",
		Recipient:  "doctor@email.com",
		AlertCount: 2,
		SentAt:     time.Now(),
	}

	err = repo.CreateNotification(context.Background(), rec)

	require.NoError(t, err)
	// notification_id 为空时自动生成
	assert.NotEmpty(t, rec.NotificationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotification_MissingEpisodeKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationsRepository(db, zap.NewNop())

	err = repo.CreateNotification(context.Background(), &NotificationRecord{
		PatientID: "patient-1",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "episode_key is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByPatient_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationsRepository(db, zap.NewNop())
	sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"notification_id", "patient_id", "episode_key", "channel",
		"recipient", "alert_count", "sent_at",
	}).AddRow("n-1", "patient-1", "heartRate", "email", "doctor@email.com", 1, sentAt)

	mock.ExpectQuery(`SELECT`).
		WithArgs("patient-1", 50).
		WillReturnRows(rows)

	records, err := repo.ListByPatient(context.Background(), "patient-1", 0)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "heartRate", records[0].EpisodeKey)
	assert.Equal(t, "email", records[0].Channel)
}

func TestCreateIngestRun_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewIngestRunsRepository(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO ingest_runs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	errMsg := "connection refused"
	err = repo.CreateIngestRun(context.Background(), &IngestRun{
		JobName:      "generateAndStoreVitals",
		PatientID:    "patient-1",
		Status:       IngestStatusFailure,
		RunAt:        time.Now(),
		DurationMs:   12,
		ErrorMessage: &errMsg,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
