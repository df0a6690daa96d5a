package secretsanta

import "errors"

var (
	ErrAlreadyStarted      = errors.New("secret santa already started")
	ErrNotStarted          = errors.New("secret santa not started")
	ErrDuplicateAttendee   = errors.New("attendee already participates in this secret santa")
	ErrParticipantNotFound = errors.New("participant not found in this secret santa")
	ErrSelfExclusion       = errors.New("participant cannot exclude itself")
	ErrUnknownExclusion    = errors.New("excluded participant does not belong to this secret santa")
	ErrInvalidBudget       = errors.New("budget must be greater than zero")
	ErrInvariantViolation  = errors.New("secret santa invariant violated")
)

// Draw failures. A *DrawError unwraps to one of these.
var (
	ErrNotEnoughParticipants = errors.New("at least two participants are required to draw")
	ErrDuplicateParticipant  = errors.New("participant listed more than once")
	ErrInfeasible            = errors.New("no valid assignment exists for these exclusions")
	ErrRetriesExhausted      = errors.New("unable to draw, retries exhausted")
)

// IsDrawError reports whether err came out of the draw engine.
func IsDrawError(err error) bool {
	var de *DrawError
	return errors.As(err, &de)
}
