package serrors

import "fmt"

// BaseError is a stable, machine-readable error. Code is the contract
// surfaced to callers and auditors; Message is for humans; Field is set
// when the error concerns a single input field.
type BaseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func NewError(code, message, field string) *BaseError {
	return &BaseError{Code: code, Message: message, Field: field}
}

func (e *BaseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMessage returns a copy carrying a more specific message while
// preserving the code, so errors.Is still matches the original.
func (e *BaseError) WithMessage(message string) *BaseError {
	return &BaseError{Code: e.Code, Message: message, Field: e.Field}
}

// Is matches any BaseError with the same code, regardless of message.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
