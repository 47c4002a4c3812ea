package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	notFound := fmt.Errorf("load season: %w", &DataNotFoundError{Season: 2021, Kind: "adp", Path: "data/adp/2021ADP.csv"})
	assert.True(t, errors.Is(notFound, ErrDataNotFound))
	assert.False(t, errors.Is(notFound, ErrCapacityExceeded))

	var dnf *DataNotFoundError
	assert.True(t, errors.As(notFound, &dnf))
	assert.Equal(t, 2021, dnf.Season)

	capacity := &CapacityExceededError{TeamID: 3, Position: "QB", Limit: 4}
	assert.True(t, errors.Is(capacity, ErrCapacityExceeded))
	assert.Equal(t, "team 3 already holds 4 QB", capacity.Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"nil", nil, "", 0},
		{"missing dataset", &DataNotFoundError{Season: 2019, Kind: "stats", Path: "x"}, ErrCodeNotFound, 2},
		{"bad config", fmt.Errorf("teams: %w", ErrInvalidConfig), ErrCodeValidation, 3},
		{"bad pick log", fmt.Errorf("row 3: %w", ErrInvalidPickLog), ErrCodeInvalidLog, 3},
		{"capacity", &CapacityExceededError{TeamID: 1, Position: "K", Limit: 3}, ErrCodeCapacity, 4},
		{"store down", fmt.Errorf("connect: %w", ErrStoreUnavailable), ErrCodeUnavailable, 1},
		{"other", errors.New("boom"), ErrCodeInternal, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, exit := Classify(tt.err)
			assert.Equal(t, tt.wantExit, exit)
			if tt.wantCode == "" {
				assert.Nil(t, appErr)
				return
			}
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestAppErrorFormatting(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: missing", NewAppError(ErrCodeNotFound, "missing").Error())
	assert.Equal(t, "NOT_FOUND: missing - season 2020", NewAppError(ErrCodeNotFound, "missing", "season 2020").Error())
}
