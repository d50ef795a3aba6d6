package analysis

import "fmt"

// Stages reported in Error.
const (
	StageExtract   = "extract"
	StageStrategy  = "strategy"
	StageHealth    = "health"
	StageKnowledge = "knowledge"
	StageMerge     = "merge"
	StageCompare   = "compare"
)

// Error is returned when an analysis stage fails.
type Error struct {
	Stage   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
