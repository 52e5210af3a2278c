package service

import "context"

type AuthService interface {
	// StartLogin validates the address, stores a fresh one-time code
	// (superseding any prior code for that email), dispatches it out of
	// band, and returns a signed challenge token.
	StartLogin(ctx context.Context, email string) (challengeToken string, err error)

	// VerifyLogin consumes the one-time code exactly once and returns a
	// session token on success.
	VerifyLogin(ctx context.Context, challengeToken, code string) (sessionToken string, err error)
}
