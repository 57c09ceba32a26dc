package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/syncx"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
	"github.com/google/uuid"
)

// DefaultResumeName names the profile created for a fresh vault.
const DefaultResumeName = "Main Resume"

type ResumeService interface {
	List(ctx context.Context) ([]models.ResumeProfile, error)
	Save(ctx context.Context, profile models.ResumeProfile) (models.ResumeProfile, SyncResult, error)
	Delete(ctx context.Context, id string) (SyncResult, error)
	// Import folds the blocks of an imported resume into the first profile.
	Import(ctx context.Context, imported models.ResumeProfile) (models.ResumeProfile, SyncResult, error)
}

type resumeService struct {
	base
}

func NewResumeService(d Deps) ResumeService {
	s := &resumeService{base{d}}
	d.Outbox.Register(EntityResumes, s.replayOp)
	return s
}

func resumeKey(p models.ResumeProfile) string { return p.ID }

func withBlockIDs(blocks []models.ExperienceBlock) []models.ExperienceBlock {
	out := slices.Clone(blocks)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}

func newSeedResume() models.ResumeProfile {
	now := timex.NowMillis()
	return models.ResumeProfile{
		ID:        uuid.NewString(),
		Name:      DefaultResumeName,
		Blocks:    []models.ExperienceBlock{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// loadSeeded reads the profiles, creating the default one when the key is
// absent. seeded reports that the default was created by this call.
func (s *resumeService) loadSeeded(ctx context.Context) (profiles []models.ResumeProfile, seeded bool, err error) {
	profiles, found, err := load[models.ResumeProfile](ctx, s.Vault, KeyResumes)
	if err != nil {
		return nil, false, err
	}
	if found {
		return profiles, false, nil
	}

	profiles = []models.ResumeProfile{newSeedResume()}
	if err := store(ctx, s.Vault, KeyResumes, profiles); err != nil {
		return nil, false, err
	}
	return profiles, true, nil
}

func (s *resumeService) List(ctx context.Context) ([]models.ResumeProfile, error) {
	unlock := s.Vault.Lock(KeyResumes)
	defer unlock()

	local, seeded, err := s.loadSeeded(ctx)
	if err != nil {
		return nil, err
	}

	remote, _, ok := reconcile(ctx, &s.base, EntityResumes, func(ctx context.Context, userID string) ([]models.ResumeProfile, error) {
		return s.Remote.ListResumes(ctx, userID)
	})
	if !ok {
		return local, nil
	}
	// A placeholder created just now must not shadow the user's real resumes.
	if seeded && len(remote) > 0 {
		local = nil
	}

	res := syncx.Merge(local, remote, resumeKey, nil)
	if err := store(ctx, s.Vault, KeyResumes, res.Items); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Save inserts or replaces the profile with the same id.
func (s *resumeService) Save(ctx context.Context, profile models.ResumeProfile) (models.ResumeProfile, SyncResult, error) {
	now := timex.NowMillis()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt == 0 {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profile.Blocks = withBlockIDs(profile.Blocks)

	unlock := s.Vault.Lock(KeyResumes)
	defer unlock()

	profiles, _, err := s.loadSeeded(ctx)
	if err != nil {
		return models.ResumeProfile{}, SyncResult{}, err
	}
	if i := slices.IndexFunc(profiles, func(p models.ResumeProfile) bool { return p.ID == profile.ID }); i >= 0 {
		profile.CreatedAt = profiles[i].CreatedAt
		profiles[i] = profile
	} else {
		profiles = append(profiles, profile)
	}
	if err := store(ctx, s.Vault, KeyResumes, profiles); err != nil {
		return models.ResumeProfile{}, SyncResult{}, err
	}

	return profile, s.sync(ctx, outbox.KindUpsert, profile), nil
}

func (s *resumeService) Delete(ctx context.Context, id string) (SyncResult, error) {
	unlock := s.Vault.Lock(KeyResumes)
	defer unlock()

	profiles, _, err := load[models.ResumeProfile](ctx, s.Vault, KeyResumes)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(profiles, func(p models.ResumeProfile) bool { return p.ID == id })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: resume %s", ErrNotFound, id)
	}
	profiles = slices.Delete(profiles, i, i+1)
	if err := store(ctx, s.Vault, KeyResumes, profiles); err != nil {
		return SyncResult{}, err
	}

	return s.sync(ctx, outbox.KindDelete, models.ResumeProfile{ID: id}), nil
}

func (s *resumeService) Import(ctx context.Context, imported models.ResumeProfile) (models.ResumeProfile, SyncResult, error) {
	unlock := s.Vault.Lock(KeyResumes)
	defer unlock()

	profiles, _, err := load[models.ResumeProfile](ctx, s.Vault, KeyResumes)
	if err != nil {
		return models.ResumeProfile{}, SyncResult{}, err
	}

	now := timex.NowMillis()
	var target models.ResumeProfile
	if len(profiles) == 0 {
		target = imported
		if target.ID == "" {
			target.ID = uuid.NewString()
		}
		if target.Name == "" {
			target.Name = DefaultResumeName
		}
		target.CreatedAt = now
		target.Blocks = models.MergeBlocks(nil, withBlockIDs(imported.Blocks))
		target.UpdatedAt = now
		profiles = []models.ResumeProfile{target}
	} else {
		target = profiles[0]
		target.Blocks = models.MergeBlocks(target.Blocks, withBlockIDs(imported.Blocks))
		target.UpdatedAt = now
		profiles[0] = target
	}

	if err := store(ctx, s.Vault, KeyResumes, profiles); err != nil {
		return models.ResumeProfile{}, SyncResult{}, err
	}
	return target, s.sync(ctx, outbox.KindUpsert, target), nil
}

func (s *resumeService) sync(ctx context.Context, kind outbox.Kind, p models.ResumeProfile) SyncResult {
	userID, ok := s.user(ctx)
	if !ok {
		return localOnly
	}
	if kind == outbox.KindDelete {
		return s.push(ctx, EntityResumes, kind, p.ID, nil, func(ctx context.Context) error {
			return s.Remote.DeleteResume(ctx, userID, p.ID)
		})
	}
	return s.push(ctx, EntityResumes, kind, p.ID, p, func(ctx context.Context) error {
		return s.Remote.UpsertResume(ctx, userID, p)
	})
}

func (s *resumeService) replayOp(ctx context.Context, userID string, op outbox.Op) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if op.Kind == outbox.KindDelete {
		return s.Remote.DeleteResume(rctx, userID, op.Key)
	}
	var p models.ResumeProfile
	if err := json.Unmarshal(op.Payload, &p); err != nil {
		return fmt.Errorf("invalid queued resume %s: %w", op.Key, err)
	}
	return s.Remote.UpsertResume(rctx, userID, p)
}
