package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&pq.Error{Code: pgLockNotAvailable}))
	assert.True(t, retryable(&pq.Error{Code: pgSerializationFailure}))
	assert.False(t, retryable(&pq.Error{Code: pgUniqueViolation}))
	assert.False(t, retryable(errors.New("plain error")))
	assert.False(t, retryable(nil))
}

func TestRetryableWrapped(t *testing.T) {
	err := fmt.Errorf("place hold: %w", &pq.Error{Code: pgLockNotAvailable})
	assert.True(t, retryable(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: pgUniqueViolation}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: pgUniqueViolation})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: pgLockNotAvailable}))
	assert.False(t, isUniqueViolation(nil))
}
