package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatchesOnCategoryAndCode(t *testing.T) {
	err := ErrInvalidDay(9)
	assert.ErrorIs(t, err, ErrInvalidDay(12))
	assert.NotErrorIs(t, err, ErrInvalidReorder("nope"))
}

func TestDomainErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrFlush(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), CodeFlushFailed)
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, ErrCatValidation, GetCategory(ErrInvalidDay(8)))
	assert.Equal(t, ErrCatNotFound, GetCategory(ErrNotFound("exercise", "abc")))
	assert.Equal(t, ErrCatPersistence, GetCategory(ErrMigration("boom", nil)))
	assert.Equal(t, ErrCatInternal, GetCategory(errors.New("plain")))
}

func TestGetCategorySeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", ErrFlush(errors.New("io")))
	assert.True(t, IsCategory(wrapped, ErrCatPersistence))
}
