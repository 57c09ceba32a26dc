package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

func (p *fakePinger) setErr(err error) { p.err.Store(&err) }

func (p *fakePinger) Ping(context.Context) error {
	p.calls.Add(1)
	if e, ok := p.err.Load().(*error); ok {
		return *e
	}
	return nil
}

// blockingPinger holds every ping until its context is cancelled.
type blockingPinger struct {
	started  chan struct{}
	once     sync.Once
	returned atomic.Bool
}

func (p *blockingPinger) Ping(ctx context.Context) error {
	p.once.Do(func() { close(p.started) })
	<-ctx.Done()
	p.returned.Store(true)
	return ctx.Err()
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	a, _ := newTestApp(t, "", nil)
	a.log = logging.NewTextLogger(&buf, "debug")

	a.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, a.Mode)
	assert.Contains(t, buf.String(), "switched mode")

	buf.Reset()
	a.setMode(ModeOnline)
	assert.Empty(t, buf.String(), "no log when the mode does not change")

	a.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, a.Mode)
	assert.Contains(t, buf.String(), "mode=offline")
}

func TestGetStatus(t *testing.T) {
	a, _ := newTestApp(t, "", nil)
	assert.Equal(t, "(anonymous local)", a.getStatus())

	a, _ = newTestApp(t, "", signedIn(t, "user-7"))
	a.setMode(ModeOnline)
	assert.Equal(t, "(user-7 online)", a.getStatus())
}

func TestCheckOnline_ReplaysWhenComingBack(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, "", signedIn(t, "u1"))
	pinger := &fakePinger{}
	a.pinger = pinger

	var replayed []string
	a.outbox.Register("notes", func(_ context.Context, userID string, op outbox.Op) error {
		replayed = append(replayed, userID+":"+op.Key)
		return nil
	})
	enqueue := func(key string) {
		op, err := outbox.NewOp("notes", outbox.KindUpsert, key, map[string]string{"k": key})
		require.NoError(t, err)
		_, err = a.outbox.Enqueue(ctx, op)
		require.NoError(t, err)
	}

	enqueue("a")
	pinger.setErr(errors.New("connection refused"))
	a.checkOnline(ctx)
	assert.Equal(t, ModeOffline, a.mode())
	assert.Empty(t, replayed)

	pinger.setErr(nil)
	a.checkOnline(ctx)
	assert.Equal(t, ModeOnline, a.mode())
	assert.Equal(t, []string{"u1:a"}, replayed)

	enqueue("b")
	a.checkOnline(ctx)
	assert.Equal(t, []string{"u1:a"}, replayed, "replay only on the offline to online edge")

	pending, err := a.outbox.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCheckOnline_AnonymousDoesNotReplay(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, "", nil)
	a.pinger = &fakePinger{}

	called := false
	a.outbox.Register("notes", func(context.Context, string, outbox.Op) error { called = true; return nil })
	op, err := outbox.NewOp("notes", outbox.KindDelete, "x", nil)
	require.NoError(t, err)
	_, err = a.outbox.Enqueue(ctx, op)
	require.NoError(t, err)

	a.checkOnline(ctx)
	assert.Equal(t, ModeOnline, a.mode())
	assert.False(t, called)
}

func TestCheckOnline_NoRemoteIsLocal(t *testing.T) {
	a, _ := newTestApp(t, "", nil)
	a.Mode = ModeOnline
	a.checkOnline(context.Background())
	assert.Equal(t, ModeLocal, a.mode())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, "", nil)
	pinger := &fakePinger{}
	a.pinger = pinger

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return pinger.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, ModeOnline, a.mode())
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	a, _ := newTestApp(t, "", nil)
	var order []int
	boom := errors.New("boom")
	a.closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}

	err := a.Close()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, a.Close(), "second close is a no-op")
}

func TestRun_StopsWatcherBeforeClosing(t *testing.T) {
	capturePrint(t)
	a, _ := newTestApp(t, "", nil)
	a.config.OnlineCheckInterval = 5 * time.Millisecond

	pr, pw := io.Pipe()
	a.reader = bufio.NewReader(pr)
	pinger := &blockingPinger{started: make(chan struct{})}
	a.pinger = pinger
	go func() {
		<-pinger.started
		_ = pw.Close()
	}()

	var pingFinished bool
	a.closers = []func() error{func() error {
		pingFinished = pinger.returned.Load()
		return nil
	}}

	done := make(chan struct{})
	go func() {
		a.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, pingFinished, "closers ran while a ping was in flight")
}
