package machine

import (
	"errors"
	"fmt"

	"github.com/openfroyo/barista/pkg/reservoir"
)

// ErrorCode classifies a machine error for programmatic handling.
type ErrorCode string

const (
	// CodeMachineOff indicates a brew was attempted while powered off.
	// Recoverable: power on and retry.
	CodeMachineOff ErrorCode = "MACHINE_OFF"

	// CodeInsufficientWater indicates the water reservoir is too low for the recipe.
	CodeInsufficientWater ErrorCode = "INSUFFICIENT_WATER"

	// CodeInsufficientBeans indicates the bean reservoir is too low for the recipe.
	CodeInsufficientBeans ErrorCode = "INSUFFICIENT_BEANS"

	// CodeInsufficientMilk indicates the milk reservoir is too low for the recipe.
	CodeInsufficientMilk ErrorCode = "INSUFFICIENT_MILK"

	// CodeUnknownProduct indicates a product outside the recipe table.
	CodeUnknownProduct ErrorCode = "UNKNOWN_PRODUCT"

	// CodeInvalidReservoir indicates a machine was built or addressed with a
	// missing or mismatched reservoir.
	CodeInvalidReservoir ErrorCode = "INVALID_RESERVOIR"
)

// Error is a classified machine error. Errors compare equal under errors.Is
// when their codes match, so the package-level sentinels can be used as
// targets while the returned values carry request details.
type Error struct {
	// Code is the error classification.
	Code ErrorCode `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Product is the canonical name of the product being brewed, if any.
	Product string `json:"product,omitempty"`

	// Resource is the reservoir that was short, if any.
	Resource string `json:"resource,omitempty"`

	// Required is the amount the recipe needed from Resource.
	Required int `json:"required,omitempty"`

	// Available is the level Resource held at the time of the check.
	Available int `json:"available,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	switch {
	case e.Resource != "":
		msg = fmt.Sprintf("%s (product=%s, required=%d, available=%d)",
			msg, e.Product, e.Required, e.Available)
	case e.Product != "":
		msg = fmt.Sprintf("%s (product=%s)", msg, e.Product)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is. Never returned directly.
var (
	ErrMachineOff        = &Error{Code: CodeMachineOff, Message: msgMachineOff}
	ErrInsufficientWater = &Error{Code: CodeInsufficientWater, Message: "Not enough water!"}
	ErrInsufficientBeans = &Error{Code: CodeInsufficientBeans, Message: "Not enough beans!"}
	ErrInsufficientMilk  = &Error{Code: CodeInsufficientMilk, Message: "Not enough milk!"}
	ErrUnknownProduct    = &Error{Code: CodeUnknownProduct, Message: "Unknown product"}
	ErrInvalidReservoir  = &Error{Code: CodeInvalidReservoir, Message: "Invalid reservoir"}
)

const msgMachineOff = "Coffee Machine is OFF. Please turn it ON before brewing."

// shortageSentinel maps a reservoir kind to its insufficiency sentinel.
func shortageSentinel(kind reservoir.Kind) *Error {
	switch kind {
	case reservoir.Water:
		return ErrInsufficientWater
	case reservoir.Beans:
		return ErrInsufficientBeans
	default:
		return ErrInsufficientMilk
	}
}

func newShortageError(kind reservoir.Kind, product string, required, available int) *Error {
	sentinel := shortageSentinel(kind)
	return &Error{
		Code:      sentinel.Code,
		Message:   sentinel.Message,
		Product:   product,
		Resource:  kind.String(),
		Required:  required,
		Available: available,
	}
}

func newError(sentinel *Error, product string, err error) *Error {
	return &Error{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Product: product,
		Err:     err,
	}
}

// CodeOf returns the code of a machine error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsMachineOff returns true if the error was caused by the power gate.
func IsMachineOff(err error) bool {
	return errors.Is(err, ErrMachineOff)
}

// IsResourceShortage returns true if the error reports any insufficient reservoir.
// Shortages are recoverable by refilling and retrying.
func IsResourceShortage(err error) bool {
	return errors.Is(err, ErrInsufficientWater) ||
		errors.Is(err, ErrInsufficientBeans) ||
		errors.Is(err, ErrInsufficientMilk)
}
