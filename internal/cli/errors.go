package cli

import (
	"errors"

	"github.com/mkrupp/underwritepro/internal/domain"
)

// displayError carries the message shown to the user while keeping the cause
// available to errors.Is and errors.As.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }

func (e *displayError) Unwrap() error { return e.err }

func userFacingError(err error, fallback string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrSessionExpired) {
		return err
	}

	return &displayError{msg: domain.ErrorMessage(err, fallback), err: err}
}
