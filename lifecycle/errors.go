// ABOUTME: Error kinds returned by lifecycle operations
// ABOUTME: Adapters map kinds to transport codes with errors.Is
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/harperreed/synchro/db"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
)

// Error carries a kind (one of the sentinels above) and a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func invalidTransition(format string, args ...any) error {
	return &Error{Kind: ErrInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// fromStore converts repository sentinels into lifecycle kinds; what names the record.
func fromStore(err error, what string) error {
	var le *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &le):
		return err
	case errors.Is(err, db.ErrNotFound):
		return notFound("%s not found", what)
	case errors.Is(err, db.ErrConflict):
		return &Error{Kind: ErrConflict, Msg: what + " was modified concurrently, please retry"}
	default:
		return err
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// check runs struct-tag validation and reports the first failing field.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return invalid("%s is required", fe.Field())
		case "min":
			return invalid("%s must be at least %s", fe.Field(), fe.Param())
		default:
			return invalid("%s is invalid", fe.Field())
		}
	}
	return invalid("%v", err)
}
