package model

import (
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunInProgress RunStatus = "in progress"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// Run is one scheduling job submitted to the server. Data holds the brief
// schedule CSV once the run succeeds; Report holds the score report, or the
// error and warnings of a failed run.
type Run struct {
	ID        string           `db:"id" json:"id"`
	Status    RunStatus        `db:"status" json:"status"`
	Area      string           `db:"area" json:"area,omitempty"`
	Data      *string          `db:"data" json:"data,omitempty"`
	Score     *json.RawMessage `db:"score" json:"score,omitempty"`
	Report    *json.RawMessage `db:"report" json:"report,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// RunFilter narrows a run listing.
type RunFilter struct {
	Status RunStatus
	Limit  int
	Offset int
}
