package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReset struct{}

func (failingReset) Reset(context.Context) error { return errors.New("disk full") }

func TestLoginLogout_AnonymousSession(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, "", nil)

	require.ErrorIs(t, a.Login(ctx, []string{"tok"}), ErrTokenAuthDisabled)
	require.ErrorIs(t, a.Logout(ctx, nil), ErrTokenAuthDisabled)
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, "", auth.NewTokenSession("", testSecret))

	err := a.Login(ctx, []string{"not-a-jwt"})
	require.ErrorIs(t, err, common.ErrInvalidToken)
	_, ok := a.userID(ctx)
	assert.False(t, ok)

	require.NoError(t, a.Login(ctx, []string{issueToken(t, "u9", testSecret)}))
	assert.Contains(t, out.String(), "Signed in as u9.")
	id, ok := a.userID(ctx)
	require.True(t, ok)
	assert.Equal(t, "u9", id)

	require.NoError(t, a.Logout(ctx, nil))
	assert.Contains(t, out.String(), "Signed out.")
	_, ok = a.userID(ctx)
	assert.False(t, ok)
}

func TestLogin_ReadsTokenFromPrompt(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, issueToken(t, "u3", testSecret)+"\n", auth.NewTokenSession("", testSecret))

	require.NoError(t, a.Login(ctx, nil))
	assert.Contains(t, out.String(), "Access token")
	assert.Contains(t, out.String(), "Signed in as u3.")
}

func TestLogin_ReplaysQueuedWritesWhenOnline(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, "", auth.NewTokenSession("", testSecret))
	a.Mode = ModeOnline

	var replayed []string
	a.outbox.Register("notes", func(_ context.Context, userID string, op outbox.Op) error {
		replayed = append(replayed, userID+":"+op.Key)
		return nil
	})
	op, err := outbox.NewOp("notes", outbox.KindUpsert, "a", map[string]string{"k": "a"})
	require.NoError(t, err)
	_, err = a.outbox.Enqueue(ctx, op)
	require.NoError(t, err)

	require.NoError(t, a.Login(ctx, []string{issueToken(t, "u5", testSecret)}))
	assert.Equal(t, []string{"u5:a"}, replayed)
	assert.Contains(t, out.String(), "Sent 1, failed 0, pending 0")
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, lines("no", "wipe"), signedIn(t, "u1"))

	_, _, err := a.skills.Save(ctx, models.CustomSkill{Name: "Go", Proficiency: models.ProficiencyExpert})
	require.NoError(t, err)

	require.NoError(t, a.Wipe(ctx, nil))
	assert.Contains(t, out.String(), "Cancelled.")
	skills, err := a.skills.List(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 1)

	require.NoError(t, a.Wipe(ctx, nil))
	assert.Contains(t, out.String(), "Local data erased.")
	skills, err = a.skills.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, skills)

	_, ok := a.userID(ctx)
	assert.False(t, ok, "wipe signs out")

	_, _, err = a.skills.Save(ctx, models.CustomSkill{Name: "Rust", Proficiency: models.ProficiencyLearning})
	require.NoError(t, err, "the vault re-keys on next use")
}

func TestWipe_ResetError(t *testing.T) {
	a, _ := newTestApp(t, lines("wipe"), nil)
	a.vault = failingReset{}

	require.ErrorContains(t, a.Wipe(context.Background(), nil), "disk full")
}
