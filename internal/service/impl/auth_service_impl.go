package impl

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"carlink/internal/domain"
	"carlink/internal/mailer"
	"carlink/internal/observability/metrics"
	"carlink/internal/observability/middleware"
	"carlink/internal/service"
	"carlink/internal/store"
	"carlink/internal/token"
)

var _ service.AuthService = (*AuthServiceImpl)(nil)

const codeLen = 5

type AuthServiceImpl struct {
	gateway store.Gateway
	tokens  *token.Authority
	mail    mailer.Mailer
	now     func() time.Time
}

func NewAuthServiceImpl(gw store.Gateway, tokens *token.Authority, mail mailer.Mailer) *AuthServiceImpl {
	return &AuthServiceImpl{
		gateway: gw,
		tokens:  tokens,
		mail:    mail,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (a *AuthServiceImpl) StartLogin(ctx context.Context, email string) (string, error) {
	result := "success"
	defer func() {
		metrics.LoginsStartedTotal.WithLabelValues(result).Inc()
	}()

	email = strings.TrimSpace(email)
	if !validEmail(email) {
		result = "invalid_email"
		return "", domain.ErrInvalidEmail
	}

	code, err := generateCode()
	if err != nil {
		result = "failure"
		return "", err
	}

	// Put supersedes: a racing second StartLogin wins and the earlier code
	// becomes permanently unusable. At most one live code per email.
	if err := a.gateway.CreateOneTimeCode(ctx, email, code); err != nil {
		result = "failure"
		return "", err
	}

	subject, body := mailer.CodeEmail(code)
	if err := a.mail.Send(ctx, email, subject, body); err != nil {
		result = "failure"
		return "", fmt.Errorf("%w: send code email: %v", store.ErrServer, err)
	}

	challenge, err := a.tokens.IssueChallenge(email)
	if err != nil {
		result = "failure"
		return "", fmt.Errorf("%w: sign challenge: %v", store.ErrServer, err)
	}

	slog.Info("login challenge issued", "email", email, "request_id", middleware.RequestIDFromContext(ctx))
	return challenge, nil
}

func (a *AuthServiceImpl) VerifyLogin(ctx context.Context, challengeToken, submitted string) (string, error) {
	result := "success"
	defer func() {
		metrics.LoginsVerifiedTotal.WithLabelValues(result).Inc()
	}()

	claims, err := a.tokens.VerifyChallenge(challengeToken)
	if err != nil {
		result = "bad_token"
		return "", err
	}

	stored, err := a.gateway.FetchOneTimeCode(ctx, claims.Email)
	if err != nil {
		result = "failure"
		return "", err
	}
	if stored == nil {
		result = "no_challenge"
		return "", domain.ErrNoSuchChallenge
	}
	now := a.now()
	if now.Sub(stored.Created) > token.ChallengeTTL {
		// The durable backend has no background sweep racing ahead of us, so
		// age is enforced here as well.
		_ = a.gateway.DeleteOneTimeCode(ctx, claims.Email)
		result = "no_challenge"
		return "", domain.ErrNoSuchChallenge
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(submitted)) != 1 {
		result = "code_mismatch"
		return "", domain.ErrCodeMismatch
	}

	// Consume exactly once: a second verify with the same challenge token
	// finds nothing and fails with ErrNoSuchChallenge.
	if err := a.gateway.DeleteOneTimeCode(ctx, claims.Email); err != nil {
		result = "failure"
		return "", err
	}
	if err := a.gateway.RecordLogin(ctx, claims.Email); err != nil {
		result = "failure"
		return "", err
	}

	session, err := a.tokens.IssueSession(claims.Email, now)
	if err != nil {
		result = "failure"
		return "", fmt.Errorf("%w: sign session: %v", store.ErrServer, err)
	}

	slog.Info("login verified", "email", claims.Email, "request_id", middleware.RequestIDFromContext(ctx))
	return session, nil
}

// generateCode draws each of the five digits independently from 0-9.
func generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display-name forms; only the bare address is acceptable.
	return addr.Address == email
}
