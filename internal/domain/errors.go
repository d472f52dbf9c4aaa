package domain

import "fmt"

// ValidationError marks a business-rule rejection. The message is safe to
// surface verbatim to the caller; nothing was written when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
