package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/allston-schedule/internal/score"
	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

func newRunRepoMock(t *testing.T) (*RunRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var runRowColumns = []string{"id", "status", "area", "data", "score", "report", "created_at", "updated_at"}

func TestRunRepositoryCreate(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_runs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &model.Run{Area: "COMPSCI"}
	require.NoError(t, repo.Create(context.Background(), run))
	assert.Len(t, run.ID, 36)
	assert.Equal(t, model.RunInProgress, run.Status)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, run.CreatedAt, run.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryCompleteAndGet(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_runs SET status = $2, data = $3")).
		WithArgs("run-1", "success", "CourseCode\n", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	simple := score.Simple{Conflicts: 1, RoundTrips: 4}
	require.NoError(t, repo.Complete(context.Background(), "run-1", "CourseCode\n", simple, map[string]int{"solves": 3}))

	now := time.Now()
	rows := sqlmock.NewRows(runRowColumns).
		AddRow("run-1", "success", "", "CourseCode\n", []byte(`{"conflicts":1}`), []byte(`{"solves":3}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status, area, data, score, report")).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.GetByID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunSuccess, run.Status)
	require.NotNil(t, run.Data)
	assert.Equal(t, "CourseCode\n", *run.Data)
	require.NotNil(t, run.Score)
	assert.JSONEq(t, `{"conflicts":1}`, string(*run.Score))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryGetInProgress(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	now := time.Now()
	rows := sqlmock.NewRows(runRowColumns).AddRow("run-2", "in progress", "", nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT .* FROM schedule_runs WHERE id").WithArgs("run-2").WillReturnRows(rows)

	run, err := repo.GetByID(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Nil(t, run.Data)
	assert.Nil(t, run.Score)
	assert.Nil(t, run.Report)
}

func TestRunRepositoryNotFound(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	mock.ExpectQuery("SELECT .* FROM schedule_runs WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_runs SET status = $2, report = $3")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Fail(context.Background(), "missing", map[string]string{"error": "x"}), appErrors.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_runs")).WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryListFilters(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "status", "area", "created_at", "updated_at"}).
		AddRow("run-1", "failed", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_runs WHERE status = $1 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("failed").
		WillReturnRows(rows)

	runs, err := repo.List(context.Background(), model.RunFilter{Status: model.RunFailed, Limit: 1000, Offset: -3})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunFailed, runs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryDelete(t *testing.T) {
	repo, mock := newRunRepoMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_runs WHERE id = $1")).WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "run-1"))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schedule_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
