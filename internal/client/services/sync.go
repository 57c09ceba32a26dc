package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidStatus      = errors.New("invalid job status")
	ErrInvalidProficiency = errors.New("invalid proficiency")
	ErrEmptyName          = errors.New("name must not be empty")
)

// Storage keys of the vault collections.
const (
	KeyJobs       = "jobs"
	KeyResumes    = "resumes"
	KeySkills     = "skills"
	KeyRoleModels = "role_models"
	KeyTargetJobs = "target_jobs"
)

// Outbox entity names.
const (
	EntityJobs       = "jobs"
	EntityResumes    = "resumes"
	EntitySkills     = "skills"
	EntityRoleModels = "role_models"
	EntityTargetJobs = "target_jobs"
)

type SyncStatus string

const (
	// SyncOK: the remote store accepted the write.
	SyncOK SyncStatus = "ok"
	// SyncLocalOnly: no session user or no remote store; nothing was sent.
	SyncLocalOnly SyncStatus = "local_only"
	// SyncQueued: the remote write failed and is waiting in the outbox.
	SyncQueued SyncStatus = "queued"
	// SyncFailed: the remote write failed and could not be queued either.
	SyncFailed SyncStatus = "failed"
)

// SyncResult reports what happened to the remote half of a mutation. Err holds
// the remote (and queueing) failure when Status is SyncQueued or SyncFailed.
type SyncResult struct {
	Status SyncStatus
	Err    error
}

func (r SyncResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Status, r.Err)
	}
	return string(r.Status)
}

var localOnly = SyncResult{Status: SyncLocalOnly}

// Vault is the encrypted local store the services persist through.
type Vault interface {
	GetSecure(ctx context.Context, key string, out any) (bool, error)
	SetSecure(ctx context.Context, key string, value any) error
	Lock(key string) func()
}

type JobsRemote interface {
	ListJobs(ctx context.Context, userID string) ([]models.Job, error)
	InsertJob(ctx context.Context, userID string, j models.Job) error
	UpdateJob(ctx context.Context, userID string, j models.Job) error
	UpsertJob(ctx context.Context, userID string, j models.Job) error
	DeleteJob(ctx context.Context, userID, id string) error
}

type ResumesRemote interface {
	ListResumes(ctx context.Context, userID string) ([]models.ResumeProfile, error)
	UpsertResume(ctx context.Context, userID string, p models.ResumeProfile) error
	DeleteResume(ctx context.Context, userID, id string) error
}

type SkillsRemote interface {
	ListSkills(ctx context.Context, userID string) ([]models.CustomSkill, error)
	UpsertSkill(ctx context.Context, userID string, sk models.CustomSkill) error
	DeleteSkill(ctx context.Context, userID, name string) error
}

type CoachRemote interface {
	ListRoleModels(ctx context.Context, userID string) ([]models.RoleModel, error)
	InsertRoleModel(ctx context.Context, userID string, rm models.RoleModel) error
	UpsertRoleModel(ctx context.Context, userID string, rm models.RoleModel) error
	DeleteRoleModel(ctx context.Context, userID, id string) error
	ListTargetJobs(ctx context.Context, userID string) ([]models.TargetJob, error)
	UpsertTargetJob(ctx context.Context, userID string, tj models.TargetJob) error
	DeleteTargetJob(ctx context.Context, userID, id string) error
}

// Remote is the relational store; *remote.Store implements it.
type Remote interface {
	JobsRemote
	ResumesRemote
	SkillsRemote
	CoachRemote
}

// Deps are the collaborators shared by all services. Remote may be nil, in
// which case every service runs local-only.
type Deps struct {
	Vault         Vault
	Remote        Remote
	Session       auth.Session
	Outbox        *outbox.Outbox
	Logger        logging.Logger
	RemoteTimeout time.Duration
}

type base struct {
	Deps
}

func (b *base) user(ctx context.Context) (string, bool) {
	if b.Remote == nil || b.Session == nil {
		return "", false
	}
	return b.Session.UserID(ctx)
}

func (b *base) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.RemoteTimeout > 0 {
		return context.WithTimeout(ctx, b.RemoteTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *base) replay(ctx context.Context, userID string) {
	if _, err := b.Outbox.Replay(ctx, userID); err != nil {
		b.Logger.Warn(ctx, "outbox replay failed", "err", err)
	}
}

// push runs a remote write for entity/key. On success any queued op for the
// same key is discarded since this write supersedes it; on failure the op is
// queued and the result reflects what the outbox holds for the key.
func (b *base) push(ctx context.Context, entity string, kind outbox.Kind, key string, payload any, call func(ctx context.Context) error) SyncResult {
	rctx, cancel := b.remoteCtx(ctx)
	err := call(rctx)
	cancel()

	if err == nil {
		if derr := b.Outbox.Discard(ctx, entity, key); derr != nil {
			b.Logger.Warn(ctx, "failed to discard superseded outbox ops", "entity", entity, "key", key, "err", derr)
		}
		return SyncResult{Status: SyncOK}
	}

	b.Logger.Warn(ctx, "remote write failed", "entity", entity, "op", kind, "key", key, "err", err)

	op, qerr := outbox.NewOp(entity, kind, key, payload)
	queued := false
	if qerr == nil {
		op.Sent = true
		queued, qerr = b.Outbox.Enqueue(ctx, op)
	}
	if qerr != nil {
		b.Logger.Error(ctx, "failed to queue remote write", "entity", entity, "key", key, "err", qerr)
		return SyncResult{Status: SyncFailed, Err: errors.Join(err, qerr)}
	}
	if !queued {
		// The write cancelled a queued op that never left the device.
		return SyncResult{Status: SyncOK}
	}
	return SyncResult{Status: SyncQueued, Err: err}
}

// reconcile replays pending writes and fetches the remote collection. ok is
// false in local-only mode or when the fetch fails.
func reconcile[T any](ctx context.Context, b *base, entity string, fetch func(ctx context.Context, userID string) ([]T, error)) (remote []T, userID string, ok bool) {
	userID, ok = b.user(ctx)
	if !ok {
		return nil, "", false
	}

	b.replay(ctx, userID)

	rctx, cancel := b.remoteCtx(ctx)
	defer cancel()

	remote, err := fetch(rctx, userID)
	if err != nil {
		b.Logger.Warn(ctx, "remote fetch failed", "entity", entity, "err", err)
		return nil, userID, false
	}
	return remote, userID, true
}

func load[T any](ctx context.Context, v Vault, key string) ([]T, bool, error) {
	var items []T
	found, err := v.GetSecure(ctx, key, &items)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return items, found, nil
}

func store[T any](ctx context.Context, v Vault, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := v.SetSecure(ctx, key, items); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
