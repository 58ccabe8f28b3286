package verification

import "errors"

var (
	ErrAlreadyOpen       = errors.New("a verification challenge is already open for this session")
	ErrChallengeNotFound = errors.New("no verification challenge found")
	ErrChallengeExpired  = errors.New("the verification challenge has expired")
	ErrNoAffectedRecords = errors.New("no checked-in students to verify")
)
