package session

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotOpen     = errors.New("session is not open")
	ErrSessionAlreadyOpen = errors.New("session has already been opened")
	ErrSessionClosed      = errors.New("session has been closed")
	ErrPolicyLocked       = errors.New("session policy cannot change once the check-in window has opened")
	ErrNoTeachersAssigned = errors.New("session has no teachers assigned")
)
