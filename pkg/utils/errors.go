package utils

import (
	"errors"
	"fmt"
)

var (
	ErrDataNotFound     = errors.New("dataset not found")
	ErrCapacityExceeded = errors.New("position capacity exceeded")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidPickLog   = errors.New("invalid pick log")
	ErrStoreUnavailable = errors.New("result store unavailable")
)

// DataNotFoundError reports a per-season dataset file that does not exist.
type DataNotFoundError struct {
	Season int
	Kind   string
	Path   string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("%s dataset for season %d not found at %s", e.Kind, e.Season, e.Path)
}

func (e *DataNotFoundError) Is(target error) bool {
	return target == ErrDataNotFound
}

// CapacityExceededError is raised when a pick would push a team past a position limit.
// The selector never produces such a pick, so seeing one means the selection policy is broken.
type CapacityExceededError struct {
	TeamID   int
	Position string
	Limit    int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("team %d already holds %d %s", e.TeamID, e.Limit, e.Position)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeCapacity    = "CAPACITY_EXCEEDED"
	ErrCodeInvalidLog  = "INVALID_PICK_LOG"
	ErrCodeUnavailable = "STORAGE_UNAVAILABLE"
)

// Classify maps an error to an AppError code and a process exit status.
func Classify(err error) (*AppError, int) {
	switch {
	case err == nil:
		return nil, 0
	case errors.Is(err, ErrDataNotFound):
		return NewAppError(ErrCodeNotFound, "required dataset missing", err.Error()), 2
	case errors.Is(err, ErrInvalidConfig):
		return NewAppError(ErrCodeValidation, "configuration rejected", err.Error()), 3
	case errors.Is(err, ErrInvalidPickLog):
		return NewAppError(ErrCodeInvalidLog, "pick log rejected", err.Error()), 3
	case errors.Is(err, ErrCapacityExceeded):
		return NewAppError(ErrCodeCapacity, "roster invariant violated", err.Error()), 4
	case errors.Is(err, ErrStoreUnavailable):
		return NewAppError(ErrCodeUnavailable, "result store unreachable", err.Error()), 1
	default:
		return NewAppError(ErrCodeInternal, "simulation failed", err.Error()), 1
	}
}
