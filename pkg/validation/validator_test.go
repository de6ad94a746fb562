package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type signupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,portal_role"`
}

func TestStructTranslatesFieldErrors(t *testing.T) {
	v := New()
	v.Register("portal_role", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "student"
	}, "{0} must be a known role")

	err := v.Struct(signupForm{Email: "not-an-email", Password: "short", Role: "guest"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "email must be a valid email address", appErr.Fields["email"])
	assert.Contains(t, appErr.Fields["password"], "at least 8 characters")
	assert.Equal(t, "role must be a known role", appErr.Fields["role"])
}

func TestStructPassesValidPayload(t *testing.T) {
	v := New()
	v.Register("portal_role", func(fl validator.FieldLevel) bool { return true }, "{0} invalid")
	assert.NoError(t, v.Struct(signupForm{Email: "a@unisync.edu", Password: "password1", Role: "student"}))
}

func TestInvalidCarriesField(t *testing.T) {
	appErr := appErrors.FromError(Invalid("end_date", "end_date must not be before start_date"))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, "end_date must not be before start_date", appErr.Fields["end_date"])
}
