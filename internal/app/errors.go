package app

import "errors"

var (
	// ErrUnauthenticated is the transport-level failure for protected
	// operations; clients match on its message.
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInvalidCursor   = errors.New("invalid cursor")
)

// FieldError reports a business-rule failure for one input field inside an
// otherwise successful response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fieldErrors(field, message string) []FieldError {
	return []FieldError{{Field: field, Message: message}}
}
