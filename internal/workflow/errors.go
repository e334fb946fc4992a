// Package workflow drives an article draft through the linear authoring
// pipeline (strategy → editor → assets → distribution → summary),
// coordinating generation calls, poster rendering, and the final publish.
package workflow

import "errors"

// ErrBusy means another operation on the same draft is still in flight.
// The UI disables triggering controls while busy, so hitting this means a
// re-entrant double submission was blocked.
var ErrBusy = errors.New("workflow: another operation is in flight")

// ErrKeyNotSelected is a precondition interrupt, not a failure: video
// generation needs a billing key and none is picked. The UI prompts the
// operator to select one, without error styling.
var ErrKeyNotSelected = errors.New("workflow: select a billing key before generating video")

// ValidationError reports missing or disallowed input. It is raised before
// any external call is made; the draft is never changed.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// validationf builds a ValidationError.
func validationf(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
