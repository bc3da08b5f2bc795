package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

const runSchema = `CREATE TABLE IF NOT EXISTS schedule_runs (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL,
	area        TEXT NOT NULL DEFAULT '',
	data        TEXT,
	score       JSONB,
	report      JSONB,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

const runColumns = `id, status, area, data, score, report, created_at, updated_at`

// RunRepository persists scheduling runs.
type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the runs table when it does not exist.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, runSchema); err != nil {
		return fmt.Errorf("create schedule_runs: %w", err)
	}
	return nil
}

// Create stores a new run in progress.
func (r *RunRepository) Create(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = run.CreatedAt
	if run.Status == "" {
		run.Status = model.RunInProgress
	}
	const query = `INSERT INTO schedule_runs (id, status, area, created_at, updated_at)
	VALUES (:id, :status, :area, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create schedule run: %w", err)
	}
	return nil
}

// Complete marks a run successful and stores its outputs.
func (r *RunRepository) Complete(ctx context.Context, id, data string, score, report any) error {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("marshal run score: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	const query = `UPDATE schedule_runs SET status = $2, data = $3, score = $4, report = $5, updated_at = $6 WHERE id = $1`
	return r.update(ctx, query, id, model.RunSuccess, data, scoreJSON, reportJSON, time.Now().UTC())
}

// Fail marks a run failed with the given report.
func (r *RunRepository) Fail(ctx context.Context, id string, report any) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	const query = `UPDATE schedule_runs SET status = $2, report = $3, updated_at = $4 WHERE id = $1`
	return r.update(ctx, query, id, model.RunFailed, reportJSON, time.Now().UTC())
}

func (r *RunRepository) update(ctx context.Context, query string, id string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update schedule run %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check schedule run update rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM schedule_runs WHERE id = $1`
	var run model.Run
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get schedule run %s: %w", id, err)
	}
	return &run, nil
}

// List returns runs newest first. Outputs are left out; fetch a single run
// to read them.
func (r *RunRepository) List(ctx context.Context, filter model.RunFilter) ([]model.Run, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, status, area, created_at, updated_at FROM schedule_runs`)
	args := make([]any, 0, 1)
	if filter.Status != "" {
		args = append(args, filter.Status)
		builder.WriteString(fmt.Sprintf(" WHERE status = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(filter.Offset, 0)
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	runs := []model.Run{}
	if err := r.db.SelectContext(ctx, &runs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule run %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check schedule run delete rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}
