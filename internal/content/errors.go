package content

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned when there is no text to work on.
var ErrEmptyContent = errors.New("content is empty")

// GenerationError wraps a failed content generation step.
type GenerationError struct {
	Task    string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Task, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Task, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
