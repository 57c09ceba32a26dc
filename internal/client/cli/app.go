package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/config"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/client/services"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
)

type Mode string

const (
	// ModeLocal: no remote store configured or no signed-in user.
	ModeLocal   Mode = "local"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger reports whether the remote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	log     logging.Logger
	jobs    services.JobService
	resumes services.ResumeService
	skills  services.SkillService
	coach   services.CoachService
	outbox  *outbox.Outbox
	vault   vaultResetter
	session auth.Session
	pinger  Pinger
	closers []func() error

	watchers sync.WaitGroup

	mu   sync.Mutex
	Mode Mode

	reader *bufio.Reader
	out    io.Writer
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the REPL on stdin and releases resources when it returns. The
// connectivity watcher is stopped before the closers run.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.watchers.Wait()
		if err := a.Close(); err != nil {
			a.log.Error(ctx, "failed to close app", "err", err)
		}
	}()
	a.Root(ctx)
}

// Close releases storage and remote connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) userID(ctx context.Context) (string, bool) {
	if a.session == nil {
		return "", false
	}
	return a.session.UserID(ctx)
}

func (a *App) getStatus() string {
	who := "anonymous"
	if id, ok := a.userID(context.Background()); ok {
		who = id
	}
	return "(" + who + " " + string(a.mode()) + ")"
}

// Root prints the banner, starts the connectivity watcher when a remote
// store is configured and blocks in the REPL.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to careerkeeper CLI (type 'help' for commands)")

	if a.pinger != nil {
		a.watchers.Add(1)
		go func() {
			defer a.watchers.Done()
			a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
		}()
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// checkOnline pings the remote store and updates the mode. Coming back online
// replays the outbox.
func (a *App) checkOnline(ctx context.Context) {
	if a.pinger == nil {
		a.setMode(ModeLocal)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pctx)
	cancel()

	if err != nil {
		if a.mode() != ModeOffline {
			a.log.Warn(ctx, "remote store unreachable", "err", err)
		}
		a.setMode(ModeOffline)
		return
	}

	wasOnline := a.mode() == ModeOnline
	a.setMode(ModeOnline)
	if wasOnline {
		return
	}

	userID, ok := a.userID(ctx)
	if !ok {
		return
	}
	if _, err := a.outbox.Replay(ctx, userID); err != nil {
		a.log.Warn(ctx, "outbox replay failed", "err", err)
	}
}

// StartOnlineStatusWatcher pings the remote store every interval until ctx
// is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func newApp(cfg *config.Config, log logging.Logger) *App {
	return &App{
		config: cfg,
		log:    log,
		Mode:   ModeLocal,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}
