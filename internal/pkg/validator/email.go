package validator

import (
	"errors"
	"net/mail"
	"strings"
)

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email format")
	}

	// mail.ParseAddress accepts display names; require a bare address
	if addr.Address != email {
		return errors.New("invalid email format")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return errors.New("invalid email format")
	}

	return nil
}
