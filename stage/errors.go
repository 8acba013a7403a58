package stage

import "errors"

var (
	// ErrAlreadyStarted is returned when Run or Start is called on a stage
	// that has already been started.
	ErrAlreadyStarted = errors.New("stage: already started")
	// ErrStage wraps failures of the sink or of the stage setup. A
	// downstream that went away is not a failure and is never wrapped.
	ErrStage = errors.New("stage: failed")
)
