package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/config"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/careerkeeper/internal/client/services"
	"github.com/dmitrijs2005/careerkeeper/internal/client/vault"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

// newTestApp builds an App over an in-memory vault without a remote store.
// input feeds the interactive prompts.
func newTestApp(t *testing.T, input string, session auth.Session) (*App, *bytes.Buffer) {
	t.Helper()
	log := logging.NewDiscardLogger()

	v := vault.New(kv.NewMemoryRepository(), []byte("test-seed"), log)
	require.NoError(t, v.EnsureInit(context.Background()))

	if session == nil {
		session = auth.Anonymous{}
	}
	ob := outbox.New(v, log)
	deps := services.Deps{Vault: v, Session: session, Outbox: ob, Logger: log}

	var out bytes.Buffer
	a := newApp(&config.Config{OnlineCheckInterval: time.Second}, log)
	a.reader = rdr(input)
	a.out = &out
	a.outbox = ob
	a.vault = v
	a.session = session
	a.jobs = services.NewJobService(deps)
	a.resumes = services.NewResumeService(deps)
	a.skills = services.NewSkillService(deps)
	a.coach = services.NewCoachService(deps)
	return a, &out
}

func issueToken(t *testing.T, userID string, secret []byte) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func signedIn(t *testing.T, userID string) *auth.TokenSession {
	t.Helper()
	return auth.NewTokenSession(issueToken(t, userID, testSecret), testSecret)
}
