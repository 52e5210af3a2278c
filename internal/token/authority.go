// Package token issues and verifies the two signed credentials used by the
// login flow: a short-lived email challenge token and a sliding-expiry
// session token.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadToken covers every verification failure: bad signature, malformed
// payload, or expiry. Callers must treat it as "re-authenticate", never retry.
var ErrBadToken = errors.New("bad token")

const (
	ChallengeTTL = 15 * time.Minute
	SessionTTL   = time.Hour

	// RefreshLead is how close to expiry a session token must be before
	// validation mints a replacement.
	RefreshLead = 5 * time.Minute
)

type ChallengeClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type SessionClaims struct {
	Email string `json:"email"`
	// SigninDate is fixed at the first issuance of the session and carried
	// forward unchanged through every refresh.
	SigninDate int64 `json:"signin_date"`
	jwt.RegisteredClaims
}

type Config struct {
	Issuer     string
	SigningKey []byte // HS256 secret
}

type Authority struct {
	cfg Config
	now func() time.Time
}

func NewAuthority(cfg Config) *Authority {
	return &Authority{
		cfg: cfg,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewAuthorityWithClock is for tests that need a fake clock.
func NewAuthorityWithClock(cfg Config, now func() time.Time) *Authority {
	a := NewAuthority(cfg)
	a.now = now
	return a
}

// IssueChallenge signs a token proving that email started a login. No side
// effects beyond signing.
func (a *Authority) IssueChallenge(email string) (string, error) {
	now := a.now()
	claims := ChallengeClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ChallengeTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(a.cfg.SigningKey)
}

// VerifyChallenge decodes and validates a challenge token.
func (a *Authority) VerifyChallenge(tokenStr string) (*ChallengeClaims, error) {
	claims := &ChallengeClaims{}
	if err := a.parse(tokenStr, claims); err != nil {
		return nil, ErrBadToken
	}
	return claims, nil
}

// IssueSession signs a session token. signinDate is preserved as given so a
// refreshed token still reports the original sign-in.
func (a *Authority) IssueSession(email string, signinDate time.Time) (string, error) {
	now := a.now()
	claims := SessionClaims{
		Email:      email,
		SigninDate: signinDate.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(a.cfg.SigningKey)
}

// ValidateAndRefresh checks a session token and applies the sliding-expiry
// policy. An expired token is rejected outright, forcing re-login. A live
// token with more than RefreshLead remaining passes through unchanged. A live
// token inside the lead window additionally yields a replacement token
// (refreshed != "") that the caller must relay back to the client.
func (a *Authority) ValidateAndRefresh(tokenStr string) (claims *SessionClaims, refreshed string, err error) {
	claims = &SessionClaims{}
	if err := a.parse(tokenStr, claims); err != nil {
		return nil, "", ErrBadToken
	}

	now := a.now()
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, "", ErrBadToken
	}
	if claims.ExpiresAt.Time.Sub(now) > RefreshLead {
		return claims, "", nil
	}

	refreshed, err = a.IssueSession(claims.Email, time.Unix(claims.SigninDate, 0).UTC())
	if err != nil {
		return nil, "", err
	}
	return claims, refreshed, nil
}

func (a *Authority) parse(tokenStr string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.cfg.SigningKey, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return ErrBadToken
	}
	return nil
}
