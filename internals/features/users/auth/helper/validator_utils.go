package helpers

import (
	"regexp"
	"strings"
	"unicode"

	"kursusku_backend/internals/helpers/apperror"
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	userNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,50}$`)
)

func isAlphaNumeric(s string) bool {
	var hasLetter, hasNumber bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}

// IsValidEmail: regex simple
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeEmail: trim + lowercase, dipakai sebelum simpan & sebelum lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword: minimal 8 karakter, kombinasi huruf & angka.
func ValidatePassword(field, pw string) *apperror.FieldError {
	switch {
	case len(pw) < 8:
		return &apperror.FieldError{Field: field, Message: "minimal 8 karakter"}
	case !isAlphaNumeric(pw):
		return &apperror.FieldError{Field: field, Message: "harus mengandung huruf dan angka"}
	}
	return nil
}

// ValidateRegistration mengumpulkan semua error field sekaligus.
func ValidateRegistration(userName, email, password string) error {
	var errs []apperror.FieldError
	if !userNameRe.MatchString(userName) {
		errs = append(errs, apperror.FieldError{Field: "user_name", Message: "3-50 karakter: huruf, angka, titik, underscore"})
	}
	if !IsValidEmail(email) {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "format email tidak valid"})
	}
	if fe := ValidatePassword("password", password); fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		return apperror.Validation(errs...)
	}
	return nil
}
