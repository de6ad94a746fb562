package service

import (
	"strconv"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

// DefaultMinPasswordLength applies when no configuration is supplied.
const DefaultMinPasswordLength = 8

// NewValidator registers the domain validation tags used by request models.
func NewValidator(minPasswordLength int) *validation.Validator {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	v := validation.New()
	v.Register("portal_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	}, "{0} must be one of student, staff or admin")
	v.Register("strong_password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String(), minPasswordLength)
	}, "{0} must be at least "+strconv.Itoa(minPasswordLength)+" characters and contain a letter and a digit")
	v.Register("announcement_category", func(fl validator.FieldLevel) bool {
		return models.AnnouncementCategory(fl.Field().String()).Valid()
	}, "{0} must be one of emergency, important, placement, event or general")
	v.Register("leave_type", func(fl validator.FieldLevel) bool {
		return models.LeaveType(fl.Field().String()).Valid()
	}, "{0} must be leave or od")
	return v
}

// StrongPassword reports whether password is long enough and mixes letters with digits.
func StrongPassword(password string, minLength int) bool {
	if len([]rune(password)) < minLength {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
