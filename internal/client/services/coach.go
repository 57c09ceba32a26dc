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

type CoachService interface {
	ListRoleModels(ctx context.Context) ([]models.RoleModel, error)
	AddRoleModel(ctx context.Context, rm models.RoleModel) (models.RoleModel, SyncResult, error)
	// DeleteRoleModel also clears the reference from every target job.
	DeleteRoleModel(ctx context.Context, id string) (SyncResult, error)

	ListTargetJobs(ctx context.Context) ([]models.TargetJob, error)
	SaveTargetJob(ctx context.Context, tj models.TargetJob) (models.TargetJob, SyncResult, error)
	DeleteTargetJob(ctx context.Context, id string) (SyncResult, error)
	SetMilestoneStatus(ctx context.Context, targetID, milestoneID string, completed bool) (SyncResult, error)
}

type coachService struct {
	base
}

func NewCoachService(d Deps) CoachService {
	s := &coachService{base{d}}
	d.Outbox.Register(EntityRoleModels, s.replayRoleModel)
	d.Outbox.Register(EntityTargetJobs, s.replayTargetJob)
	return s
}

func roleModelKey(rm models.RoleModel) string { return rm.ID }
func targetJobKey(tj models.TargetJob) string { return tj.ID }

func (s *coachService) ListRoleModels(ctx context.Context) ([]models.RoleModel, error) {
	unlock := s.Vault.Lock(KeyRoleModels)
	defer unlock()

	local, _, err := load[models.RoleModel](ctx, s.Vault, KeyRoleModels)
	if err != nil {
		return nil, err
	}

	remote, _, ok := reconcile(ctx, &s.base, EntityRoleModels, func(ctx context.Context, userID string) ([]models.RoleModel, error) {
		return s.Remote.ListRoleModels(ctx, userID)
	})
	if !ok {
		return local, nil
	}

	res := syncx.Merge(local, remote, roleModelKey, nil)
	if err := store(ctx, s.Vault, KeyRoleModels, res.Items); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *coachService) AddRoleModel(ctx context.Context, rm models.RoleModel) (models.RoleModel, SyncResult, error) {
	if rm.Name == "" {
		return models.RoleModel{}, SyncResult{}, ErrEmptyName
	}
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	if rm.CreatedAt == 0 {
		rm.CreatedAt = timex.NowMillis()
	}

	unlock := s.Vault.Lock(KeyRoleModels)
	defer unlock()

	rms, _, err := load[models.RoleModel](ctx, s.Vault, KeyRoleModels)
	if err != nil {
		return models.RoleModel{}, SyncResult{}, err
	}
	rms = slices.Insert(rms, 0, rm)
	if err := store(ctx, s.Vault, KeyRoleModels, rms); err != nil {
		return models.RoleModel{}, SyncResult{}, err
	}

	userID, ok := s.user(ctx)
	if !ok {
		return rm, localOnly, nil
	}
	return rm, s.push(ctx, EntityRoleModels, outbox.KindInsert, rm.ID, rm, func(ctx context.Context) error {
		return s.Remote.InsertRoleModel(ctx, userID, rm)
	}), nil
}

func (s *coachService) DeleteRoleModel(ctx context.Context, id string) (SyncResult, error) {
	unlockRM := s.Vault.Lock(KeyRoleModels)
	defer unlockRM()
	unlockTJ := s.Vault.Lock(KeyTargetJobs)
	defer unlockTJ()

	rms, _, err := load[models.RoleModel](ctx, s.Vault, KeyRoleModels)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(rms, func(rm models.RoleModel) bool { return rm.ID == id })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: role model %s", ErrNotFound, id)
	}
	rms = slices.Delete(rms, i, i+1)

	tjs, found, err := load[models.TargetJob](ctx, s.Vault, KeyTargetJobs)
	if err != nil {
		return SyncResult{}, err
	}
	cleared := false
	for i := range tjs {
		if tjs[i].RoleModelID == id {
			tjs[i].RoleModelID = ""
			cleared = true
		}
	}

	if err := store(ctx, s.Vault, KeyRoleModels, rms); err != nil {
		return SyncResult{}, err
	}
	if found && cleared {
		if err := store(ctx, s.Vault, KeyTargetJobs, tjs); err != nil {
			return SyncResult{}, err
		}
	}

	userID, ok := s.user(ctx)
	if !ok {
		return localOnly, nil
	}
	return s.push(ctx, EntityRoleModels, outbox.KindDelete, id, nil, func(ctx context.Context) error {
		return s.Remote.DeleteRoleModel(ctx, userID, id)
	}), nil
}

func (s *coachService) ListTargetJobs(ctx context.Context) ([]models.TargetJob, error) {
	unlock := s.Vault.Lock(KeyTargetJobs)
	defer unlock()

	local, _, err := load[models.TargetJob](ctx, s.Vault, KeyTargetJobs)
	if err != nil {
		return nil, err
	}

	remote, _, ok := reconcile(ctx, &s.base, EntityTargetJobs, func(ctx context.Context, userID string) ([]models.TargetJob, error) {
		return s.Remote.ListTargetJobs(ctx, userID)
	})
	if !ok {
		return local, nil
	}

	res := syncx.Merge(local, remote, targetJobKey, nil)
	if err := store(ctx, s.Vault, KeyTargetJobs, res.Items); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *coachService) SaveTargetJob(ctx context.Context, tj models.TargetJob) (models.TargetJob, SyncResult, error) {
	if tj.Title == "" {
		return models.TargetJob{}, SyncResult{}, ErrEmptyName
	}
	now := timex.NowMillis()
	if tj.ID == "" {
		tj.ID = uuid.NewString()
	}
	if tj.CreatedAt == 0 {
		tj.CreatedAt = now
	}
	tj.UpdatedAt = now
	tj.Milestones = slices.Clone(tj.Milestones)
	for i := range tj.Milestones {
		if tj.Milestones[i].ID == "" {
			tj.Milestones[i].ID = uuid.NewString()
		}
	}

	unlock := s.Vault.Lock(KeyTargetJobs)
	defer unlock()

	tjs, _, err := load[models.TargetJob](ctx, s.Vault, KeyTargetJobs)
	if err != nil {
		return models.TargetJob{}, SyncResult{}, err
	}
	if i := slices.IndexFunc(tjs, func(t models.TargetJob) bool { return t.ID == tj.ID }); i >= 0 {
		tj.CreatedAt = tjs[i].CreatedAt
		tjs[i] = tj
	} else {
		tjs = slices.Insert(tjs, 0, tj)
	}
	if err := store(ctx, s.Vault, KeyTargetJobs, tjs); err != nil {
		return models.TargetJob{}, SyncResult{}, err
	}

	return tj, s.syncTargetJob(ctx, tj), nil
}

func (s *coachService) DeleteTargetJob(ctx context.Context, id string) (SyncResult, error) {
	unlock := s.Vault.Lock(KeyTargetJobs)
	defer unlock()

	tjs, _, err := load[models.TargetJob](ctx, s.Vault, KeyTargetJobs)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(tjs, func(t models.TargetJob) bool { return t.ID == id })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: target job %s", ErrNotFound, id)
	}
	tjs = slices.Delete(tjs, i, i+1)
	if err := store(ctx, s.Vault, KeyTargetJobs, tjs); err != nil {
		return SyncResult{}, err
	}

	userID, ok := s.user(ctx)
	if !ok {
		return localOnly, nil
	}
	return s.push(ctx, EntityTargetJobs, outbox.KindDelete, id, nil, func(ctx context.Context) error {
		return s.Remote.DeleteTargetJob(ctx, userID, id)
	}), nil
}

func (s *coachService) SetMilestoneStatus(ctx context.Context, targetID, milestoneID string, completed bool) (SyncResult, error) {
	unlock := s.Vault.Lock(KeyTargetJobs)
	defer unlock()

	tjs, _, err := load[models.TargetJob](ctx, s.Vault, KeyTargetJobs)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(tjs, func(t models.TargetJob) bool { return t.ID == targetID })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: target job %s", ErrNotFound, targetID)
	}
	m := slices.IndexFunc(tjs[i].Milestones, func(ms models.Milestone) bool { return ms.ID == milestoneID })
	if m < 0 {
		return SyncResult{}, fmt.Errorf("%w: milestone %s", ErrNotFound, milestoneID)
	}

	tjs[i].Milestones[m].Completed = completed
	tjs[i].UpdatedAt = timex.NowMillis()
	if err := store(ctx, s.Vault, KeyTargetJobs, tjs); err != nil {
		return SyncResult{}, err
	}

	return s.syncTargetJob(ctx, tjs[i]), nil
}

func (s *coachService) syncTargetJob(ctx context.Context, tj models.TargetJob) SyncResult {
	userID, ok := s.user(ctx)
	if !ok {
		return localOnly
	}
	return s.push(ctx, EntityTargetJobs, outbox.KindUpsert, tj.ID, tj, func(ctx context.Context) error {
		return s.Remote.UpsertTargetJob(ctx, userID, tj)
	})
}

func (s *coachService) replayRoleModel(ctx context.Context, userID string, op outbox.Op) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if op.Kind == outbox.KindDelete {
		return s.Remote.DeleteRoleModel(rctx, userID, op.Key)
	}
	var rm models.RoleModel
	if err := json.Unmarshal(op.Payload, &rm); err != nil {
		return fmt.Errorf("invalid queued role model %s: %w", op.Key, err)
	}
	return s.Remote.UpsertRoleModel(rctx, userID, rm)
}

func (s *coachService) replayTargetJob(ctx context.Context, userID string, op outbox.Op) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if op.Kind == outbox.KindDelete {
		return s.Remote.DeleteTargetJob(rctx, userID, op.Key)
	}
	var tj models.TargetJob
	if err := json.Unmarshal(op.Payload, &tj); err != nil {
		return fmt.Errorf("invalid queued target job %s: %w", op.Key, err)
	}
	return s.Remote.UpsertTargetJob(rctx, userID, tj)
}
