package tasks

import "errors"

var (
	ErrInvalidID     = errors.New("invalid task id")
	ErrUnknownFormat = errors.New("unknown export format")
)

const (
	msgTextRequired = "Task text is required"
	msgInvalidID    = "Invalid task ID"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a request that was rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
