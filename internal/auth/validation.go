package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Compiled once before serving traffic; never mutated afterwards.
var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// FieldError reports a single failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failing field at once rather than
// stopping at the first.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// SanitizeInput trims surrounding whitespace from user input.
func SanitizeInput(s string) string {
	return strings.TrimSpace(s)
}

// ValidateEmail checks the email format.
func ValidateEmail(email string) *FieldError {
	switch {
	case email == "":
		return &FieldError{Field: "email", Message: "Email is required"}
	case len(email) > 254:
		return &FieldError{Field: "email", Message: "Email is too long"}
	case !emailRegex.MatchString(email):
		return &FieldError{Field: "email", Message: "Invalid email format"}
	}
	return nil
}

// ValidateUsername checks the username policy: 3..50 chars, word characters only.
func ValidateUsername(username string) *FieldError {
	switch {
	case username == "":
		return &FieldError{Field: "username", Message: "Username is required"}
	case len(username) < 3:
		return &FieldError{Field: "username", Message: "Username must be at least 3 characters long"}
	case len(username) > 50:
		return &FieldError{Field: "username", Message: "Username is too long"}
	case !usernameRegex.MatchString(username):
		return &FieldError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}
	return nil
}

// ValidatePassword checks the password policy: 8..128 chars with an
// uppercase letter, a lowercase letter, a digit and a special character.
func ValidatePassword(password string) *FieldError {
	switch {
	case password == "":
		return &FieldError{Field: "password", Message: "Password is required"}
	case len(password) < 8:
		return &FieldError{Field: "password", Message: "Password must be at least 8 characters long"}
	case len(password) > 128:
		return &FieldError{Field: "password", Message: "Password is too long"}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return &FieldError{Field: "password", Message: "Password must contain at least one uppercase letter"}
	case !hasLower:
		return &FieldError{Field: "password", Message: "Password must contain at least one lowercase letter"}
	case !hasDigit:
		return &FieldError{Field: "password", Message: "Password must contain at least one number"}
	case !hasSpecial:
		return &FieldError{Field: "password", Message: "Password must contain at least one special character"}
	}
	return nil
}

// ValidateRegisterPayload validates all registration fields and reports
// every failure at once. Identity fields are trimmed before validation;
// the password is validated exactly as submitted because it is hashed and
// verified byte-for-byte.
func ValidateRegisterPayload(username, email, password string) ValidationErrors {
	var errs ValidationErrors
	if e := ValidateUsername(SanitizeInput(username)); e != nil {
		errs = append(errs, *e)
	}
	if e := ValidateEmail(SanitizeInput(email)); e != nil {
		errs = append(errs, *e)
	}
	if e := ValidatePassword(password); e != nil {
		errs = append(errs, *e)
	}
	return errs
}

// ValidateLoginPayload validates the login fields. The password only has to
// be present; its policy was enforced at registration.
func ValidateLoginPayload(email, password string) ValidationErrors {
	var errs ValidationErrors
	if e := ValidateEmail(SanitizeInput(email)); e != nil {
		errs = append(errs, *e)
	}
	if SanitizeInput(password) == "" {
		errs = append(errs, FieldError{Field: "password", Message: "Password is required"})
	}
	return errs
}
