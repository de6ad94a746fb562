package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrForbidden, "only the creator may edit")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "only the creator may edit", err.Message)
	assert.Equal(t, "forbidden", ErrForbidden.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("context: %w", ErrDuplicateEmail)
	assert.Equal(t, ErrDuplicateEmail.Code, FromError(wrapped).Code)
	assert.True(t, HasCode(wrapped, "DUPLICATE_EMAIL"))
}
