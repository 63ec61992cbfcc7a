package application

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
)

// Explicit validators returning typed field errors; transport maps them to a
// 400 with the per-field detail.

func validateRegister(input RegisterInput) error {
	fields := domainerrors.FieldErrors{}
	if strings.TrimSpace(input.Username) == "" {
		fields["username"] = "is required"
	} else if utf8.RuneCountInString(input.Username) > 64 {
		fields["username"] = "must be at most 64 characters"
	}
	validateEmailInto(fields, input.Email)
	if input.Password == "" {
		fields["password"] = "is required"
	} else if utf8.RuneCountInString(input.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func validateLogin(input LoginInput) error {
	fields := domainerrors.FieldErrors{}
	validateEmailInto(fields, input.Email)
	if input.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func validateEmail(email string) error {
	fields := domainerrors.FieldErrors{}
	validateEmailInto(fields, email)
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func validateEmailInto(fields domainerrors.FieldErrors, email string) {
	if strings.TrimSpace(email) == "" {
		fields["email"] = "is required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "is not a valid address"
	}
}
