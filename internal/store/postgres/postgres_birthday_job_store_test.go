package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthfire/internal/constants"
	"birthfire/internal/state"
	"birthfire/internal/store"
)

func newJobStore(t *testing.T) (store.BirthdayJobStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresBirthdayJobStore(db), mock
}

func TestJobStore_Submit(t *testing.T) {
	jobStore, mock := newJobStore(t)
	scheduledAt := time.Date(2025, 12, 14, 2, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO birthfire_schema\.birthday_jobs.+ON CONFLICT \(job_id\) DO NOTHING`).
		WithArgs("birthday-user-1-1765677600000", "user-1", state.StatusQueued,
			constants.MaxDeliveryAttempts, scheduledAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := jobStore.Submit(context.Background(), "birthday-user-1-1765677600000", "user-1", scheduledAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Submit_DuplicateIsNoOp(t *testing.T) {
	jobStore, mock := newJobStore(t)
	scheduledAt := time.Date(2025, 12, 14, 2, 0, 0, 0, time.UTC)

	// The conflict clause swallows the duplicate; no error surfaces.
	mock.ExpectExec(`INSERT INTO birthfire_schema\.birthday_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := jobStore.Submit(context.Background(), "birthday-user-1-1765677600000", "user-1", scheduledAt)
	assert.NoError(t, err)
}

func TestJobStore_FetchDue(t *testing.T) {
	jobStore, mock := newJobStore(t)
	now := time.Date(2025, 12, 14, 2, 30, 0, 0, time.UTC)
	scheduledAt := time.Date(2025, 12, 14, 2, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"job_id", "user_id", "status", "attempts", "max_attempts", "scheduled_at",
		"executed_at", "finished_at", "last_error", "locked_by", "locked_at", "created_at",
	}).AddRow(
		"birthday-user-1-1765677600000", "user-1", state.StatusQueued, 0, 5, scheduledAt,
		nil, nil, nil, nil, nil, scheduledAt.Add(-24*time.Hour),
	)

	mock.ExpectQuery(`WHERE status = \$1 AND scheduled_at <= \$2`).
		WithArgs(state.StatusQueued, now, 100).
		WillReturnRows(rows)

	jobs, err := jobStore.FetchDue(context.Background(), now, 100)
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	assert.Equal(t, "user-1", jobs[0].UserID)
	assert.Nil(t, jobs[0].LockedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Lock(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`WHERE job_id = \$1 AND status = \$4`).
		WithArgs("job-1", state.StatusProcessing, "instance-a", state.StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := jobStore.Lock(context.Background(), "job-1", "instance-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobStore_Lock_AlreadyClaimed(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`WHERE job_id = \$1 AND status = \$4`).
		WithArgs("job-1", state.StatusProcessing, "instance-b", state.StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := jobStore.Lock(context.Background(), "job-1", "instance-b")
	require.NoError(t, err)
	assert.False(t, ok, "a row already in processing must not be claimed twice")
}

func TestJobStore_MarkSuccessDeletesRow(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`DELETE FROM birthfire_schema\.birthday_jobs WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, jobStore.MarkSuccess(context.Background(), "job-1"))
}

func TestJobStore_MarkFailure_Requeues(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`SET status = \$2, last_error = \$3, locked_by = NULL`).
		WithArgs("job-1", state.StatusQueued, "smtp down").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := jobStore.MarkFailure(context.Background(), "job-1", "smtp down", 2, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_MarkFailure_ExhaustedAttemptsFail(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`SET status = \$2, last_error = \$3, finished_at = now\(\)`).
		WithArgs("job-1", state.StatusFailed, "smtp down").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := jobStore.MarkFailure(context.Background(), "job-1", "smtp down", 5, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_UnlockStale(t *testing.T) {
	jobStore, mock := newJobStore(t)

	mock.ExpectExec(`WHERE status = \$2 AND locked_at < \$3`).
		WithArgs(state.StatusQueued, state.StatusProcessing, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, jobStore.UnlockStale(context.Background(), 5*time.Minute))
}
