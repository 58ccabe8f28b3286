package verification

import (
	"context"
)

// VerificationService maintains the set of open re-verification
// challenges, one per session at most, and fires their expiry.
type VerificationService interface {
	// OpenChallenge snapshots present/late records, tags each with the
	// new window ID, and schedules a single expiry event.
	OpenChallenge(ctx context.Context, req OpenChallengeRequest) (ChallengeResponse, error)

	// AnswerChallenge confirms continued presence; after expiry it is
	// rejected with ErrChallengeExpired and does not resurrect the record.
	AnswerChallenge(ctx context.Context, req AnswerChallengeRequest) error

	// GetOpenChallenge returns the session's open challenge, if any.
	GetOpenChallenge(ctx context.Context, sessionID string) (ChallengeResponse, error)
}
