//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session.go -package=mocks github.com/dmitrijs2005/careerkeeper/internal/client/auth Session

// Package auth supplies the optional current user for the storage services.
// A session without a user puts the services into local-only mode.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session reports the authenticated user, if any.
type Session interface {
	UserID(ctx context.Context) (string, bool)
}

// Anonymous is a Session that never has a user.
type Anonymous struct{}

func (Anonymous) UserID(context.Context) (string, bool) { return "", false }

// TokenSession resolves the user from an HS256 access token whose "sub" claim
// is the user id. The token is re-validated on every call so expiry is honored.
type TokenSession struct {
	mu     sync.RWMutex
	token  string
	secret []byte
	now    func() time.Time
}

func NewTokenSession(token string, secret []byte) *TokenSession {
	return &TokenSession{token: token, secret: secret, now: time.Now}
}

// SetToken replaces the access token; an empty token logs the session out.
func (s *TokenSession) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *TokenSession) UserID(ctx context.Context) (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", false
	}
	sub, err := s.Validate(token)
	if err != nil {
		return "", false
	}
	return sub, true
}

// Validate checks the signature and expiry of token and returns its subject.
func (s *TokenSession) Validate(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
