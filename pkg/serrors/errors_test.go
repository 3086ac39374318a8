package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratify-hq/stratify/pkg/serrors"
)

func TestBaseError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NOT_FOUND: missing", serrors.NewError("NOT_FOUND", "missing", "").Error())
	assert.Equal(t, "VALIDATION_ERROR: required (field: title)",
		serrors.NewError("VALIDATION_ERROR", "required", "title").Error())
}

func TestBaseError_WithMessagePreservesIdentity(t *testing.T) {
	t.Parallel()

	sentinel := serrors.NewError("CONFLICT", "conflict", "")
	specific := sentinel.WithMessage("edge already exists for this pair")

	assert.True(t, errors.Is(specific, sentinel))
	assert.Equal(t, "conflict", sentinel.Message, "the sentinel is never mutated")
	assert.Equal(t, "edge already exists for this pair", specific.Message)
}

func TestBaseError_IsMatchesByCodeOnly(t *testing.T) {
	t.Parallel()

	a := serrors.NewError("NOT_FOUND", "a", "")
	b := serrors.NewError("NOT_FOUND", "b", "x")
	c := serrors.NewError("CONFLICT", "a", "")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
	assert.False(t, errors.Is(a, errors.New("NOT_FOUND: a")))
}
