package internal

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Task and account limits
const (
	TaskMinLength     = 10
	TaskMaxLength     = 2000
	UsernameMinLength = 3
	PasswordMinLength = 6
)

var (
	ErrTaskEmpty    = validationError("please enter a task or instruction to analyze")
	ErrTaskTooShort = validationError(fmt.Sprintf("the instruction is too short (minimum %d characters), add more detail", TaskMinLength))
	ErrTaskTooLong  = validationError(fmt.Sprintf("the instruction is too long (maximum %d characters), please shorten it", TaskMaxLength))

	ErrFieldsRequired   = validationError("please fill in all fields")
	ErrUsernameTooShort = validationError(fmt.Sprintf("the username must have at least %d characters", UsernameMinLength))
	ErrPasswordTooShort = validationError(fmt.Sprintf("the password must have at least %d characters", PasswordMinLength))
	ErrPasswordMismatch = validationError("the passwords do not match")
	ErrInvalidEmail     = validationError("please enter a valid email")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateTask checks a task before it is sent. The emptiness and minimum
// checks use the trimmed text; the maximum applies to the text as typed.
// Authentication is checked first.
func ValidateTask(text string, authenticated bool) error {
	if !authenticated {
		return ErrAuthRequired
	}

	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return ErrTaskEmpty
	case utf8.RuneCountInString(trimmed) < TaskMinLength:
		return ErrTaskTooShort
	case utf8.RuneCountInString(text) > TaskMaxLength:
		return ErrTaskTooLong
	}
	return nil
}

// RegisterForm is the sign-up form as entered
type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// Request converts the form to the API payload
func (f RegisterForm) Request() RegisterRequest {
	return RegisterRequest{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
		FullName: f.FullName,
	}
}

// ValidateRegistration checks the form in the order a user would fix it.
func ValidateRegistration(f RegisterForm) error {
	if f.Username == "" || f.Email == "" || f.Password == "" || f.FullName == "" {
		return ErrFieldsRequired
	}
	if utf8.RuneCountInString(f.Username) < UsernameMinLength {
		return ErrUsernameTooShort
	}
	if utf8.RuneCountInString(f.Password) < PasswordMinLength {
		return ErrPasswordTooShort
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !emailPattern.MatchString(f.Email) {
		return ErrInvalidEmail
	}
	return nil
}
