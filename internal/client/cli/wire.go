package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/client"
	"github.com/dmitrijs2005/careerkeeper/internal/client/config"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/client/remote"
	"github.com/dmitrijs2005/careerkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/careerkeeper/internal/client/services"
	"github.com/dmitrijs2005/careerkeeper/internal/client/vault"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// openRemote and migrateRemote are seams over the remote store setup.
var (
	openRemote    = client.OpenRemote
	migrateRemote = remote.RunMigrations
)

// remoteLink is the Pinger for a remote store. When the app started offline
// the schema is applied on the first successful ping.
type remoteLink struct {
	store *remote.Store
	db    *sql.DB

	mu       sync.Mutex
	migrated bool
}

func (l *remoteLink) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.migrated {
		return nil
	}
	if err := migrateRemote(ctx, l.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	l.migrated = true
	return nil
}

// openStorage returns the key-value backend selected by cfg.StorageBackend and
// a function releasing it.
func openStorage(ctx context.Context, cfg *config.Config) (kv.Repository, func() error, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite, "":
		db, err := client.InitDatabase(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		return kv.NewSQLiteRepository(db), db.Close, nil

	case config.BackendS3:
		api, err := kv.NewS3Client(ctx, kv.S3Options{
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv.NewS3Repository(api, cfg.S3Bucket, cfg.S3Prefix), func() error { return nil }, nil

	case config.BackendMemory:
		return kv.NewMemoryRepository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StorageBackend)
	}
}

// deviceSeed returns the configured seed or asks for one on the terminal.
func deviceSeed(cfg *config.Config) ([]byte, error) {
	if cfg.DeviceSeed != "" {
		return []byte(cfg.DeviceSeed), nil
	}
	seed, err := getSeed(os.Stdout)
	if err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return nil, errors.New("device seed must not be empty")
	}
	return seed, nil
}

// newSession returns a token session when a JWT secret is configured, so the
// user can sign in later with "login"; without a secret the app stays
// anonymous.
func newSession(ctx context.Context, cfg *config.Config, log logging.Logger) auth.Session {
	if cfg.JWTSecret == "" {
		if cfg.AccessToken != "" {
			log.Warn(ctx, "access token ignored without jwt secret, running local-only")
		}
		return auth.Anonymous{}
	}
	s := auth.NewTokenSession(cfg.AccessToken, []byte(cfg.JWTSecret))
	if _, ok := s.UserID(ctx); !ok && cfg.AccessToken != "" {
		log.Warn(ctx, "access token rejected, running local-only")
	}
	return s
}

// attachRemote routes the services' remote writes through db and lets the
// connectivity watcher track it. migrated tells whether the schema is current.
func attachRemote(app *App, deps *services.Deps, db *sql.DB, migrated bool) {
	store := remote.New(db)
	app.closers = append(app.closers, store.Close)
	app.pinger = &remoteLink{store: store, db: db, migrated: migrated}
	deps.Remote = store
}

// NewApp builds the storage stack described by cfg: the key-value backend,
// the vault (unlocked with the device seed), the outbox, the optional remote
// store and the services on top of them.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	app := newApp(cfg, log)

	repo, closeRepo, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepo)

	seed, err := deviceSeed(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	v := vault.New(repo, seed, log)
	common.WipeByteArray(seed)
	if err := v.EnsureInit(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, func() error { v.Wipe(); return nil })

	app.vault = v
	app.outbox = outbox.New(v, log)
	app.session = newSession(ctx, cfg, log)

	deps := services.Deps{
		Vault:         v,
		Session:       app.session,
		Outbox:        app.outbox,
		Logger:        log,
		RemoteTimeout: cfg.RemoteTimeout,
	}

	if cfg.RemoteDSN != "" {
		db, err := openRemote(ctx, cfg.RemoteDSN)
		switch {
		case errors.Is(err, client.ErrUnavailable) && db != nil:
			log.Warn(ctx, "remote store unavailable, starting offline", "err", err)
			attachRemote(app, &deps, db, false)
			app.Mode = ModeOffline
		case errors.Is(err, client.ErrUnavailable):
			log.Warn(ctx, "remote store unavailable, running local-only", "err", err)
		case err != nil:
			_ = app.Close()
			return nil, err
		default:
			attachRemote(app, &deps, db, true)
			app.Mode = ModeOnline
		}
	}

	app.jobs = services.NewJobService(deps)
	app.resumes = services.NewResumeService(deps)
	app.skills = services.NewSkillService(deps)
	app.coach = services.NewCoachService(deps)

	return app, nil
}
