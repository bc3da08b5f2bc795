package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rhyrak/allston-schedule/internal/scheduler"
)

// Error is a typed error the HTTP layer can render.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrInfeasible         = New("INFEASIBLE", http.StatusUnprocessableEntity, "no schedule satisfies the constraints")
	ErrNoSolution         = New("NO_SOLUTION", http.StatusGatewayTimeout, "no schedule found within the time limit")
	ErrNothingToSchedule  = New("NOTHING_TO_SCHEDULE", http.StatusBadRequest, "no courses to schedule")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss never reaches a client; callers fall back to computing.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error. Scheduling engine errors
// map onto their HTTP equivalents.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, scheduler.ErrInfeasibleBase):
		return Wrap(err, ErrInfeasible.Code, ErrInfeasible.Status, ErrInfeasible.Message)
	case errors.Is(err, scheduler.ErrNoInitialSolution):
		return Wrap(err, ErrNoSolution.Code, ErrNoSolution.Status, ErrNoSolution.Message)
	case errors.Is(err, scheduler.ErrNothingToSchedule):
		return Wrap(err, ErrNothingToSchedule.Code, ErrNothingToSchedule.Status, ErrNothingToSchedule.Message)
	case errors.Is(err, scheduler.ErrPrecondition):
		return Wrap(err, ErrPreconditionFailed.Code, ErrPreconditionFailed.Status, ErrPreconditionFailed.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of err with an optional message override.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
