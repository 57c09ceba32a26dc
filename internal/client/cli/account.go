package cli

import (
	"context"
	"errors"
	"fmt"
)

var ErrTokenAuthDisabled = errors.New("token sign-in is not configured (set jwt_secret)")

// tokenSession is the part of auth.TokenSession the account commands drive.
type tokenSession interface {
	UserID(ctx context.Context) (string, bool)
	SetToken(token string)
	Validate(token string) (string, error)
}

// vaultResetter erases the local store.
type vaultResetter interface {
	Reset(ctx context.Context) error
}

// Login signs the session in with an access token given as the argument or
// read from the prompt. Queued writes are replayed when the remote is online.
func (a *App) Login(ctx context.Context, args []string) error {
	ts, ok := a.session.(tokenSession)
	if !ok {
		return ErrTokenAuthDisabled
	}

	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		t, err := getSimpleText(a.reader, "Access token", a.out)
		if err != nil {
			return err
		}
		token = t
	}

	userID, err := ts.Validate(token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	ts.SetToken(token)
	fmt.Fprintf(a.out, "Signed in as %s.\n", userID)

	if a.mode() != ModeOnline {
		return nil
	}
	res, err := a.outbox.Replay(ctx, userID)
	if err != nil {
		a.log.Warn(ctx, "outbox replay failed", "err", err)
		return nil
	}
	if res.Sent > 0 || res.Pending > 0 {
		fmt.Fprintf(a.out, "Sent %d, failed %d, pending %d\n", res.Sent, res.Failed, res.Pending)
	}
	return nil
}

// Logout drops the access token; queued writes stay on the device.
func (a *App) Logout(_ context.Context, _ []string) error {
	ts, ok := a.session.(tokenSession)
	if !ok {
		return ErrTokenAuthDisabled
	}
	ts.SetToken("")
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// Wipe erases every local record, the outbox and the vault key material,
// then signs out. The user has to type "wipe" to confirm.
func (a *App) Wipe(ctx context.Context, _ []string) error {
	answer, err := getSimpleText(a.reader, `This erases all local data, including writes not yet synced. Type "wipe" to confirm`, a.out)
	if err != nil {
		return err
	}
	if answer != "wipe" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.vault.Reset(ctx); err != nil {
		return err
	}
	if ts, ok := a.session.(tokenSession); ok {
		ts.SetToken("")
	}
	a.log.Info(ctx, "local data wiped")
	fmt.Fprintln(a.out, "Local data erased.")
	return nil
}
