package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "matinee/internal/errors"
)

func TestResetServiceRefusedInProd(t *testing.T) {
	store := &fakeResetter{}
	svc := NewResetService(store, "prod")

	err := svc.Reset(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Zero(t, store.calls)
}

func TestResetServiceAllowedElsewhere(t *testing.T) {
	for _, env := range []string{"dev", "test", "staging"} {
		store := &fakeResetter{}
		svc := NewResetService(store, env)

		err := svc.Reset(context.Background())
		assert.NoError(t, err, "env %s", env)
		assert.Equal(t, 1, store.calls)
	}
}
