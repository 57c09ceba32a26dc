package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/syncx"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

type SkillService interface {
	List(ctx context.Context) ([]models.CustomSkill, error)
	// Save inserts the skill or, when one with the same name exists,
	// overwrites its proficiency and evidence.
	Save(ctx context.Context, skill models.CustomSkill) (models.CustomSkill, SyncResult, error)
	Delete(ctx context.Context, name string) (SyncResult, error)
}

type skillService struct {
	base
}

func NewSkillService(d Deps) SkillService {
	s := &skillService{base{d}}
	d.Outbox.Register(EntitySkills, s.replayOp)
	return s
}

// skillKey identifies a skill by its trimmed name. A stored record keeps the
// name it was created with so remote writes address the same row.
func skillKey(sk models.CustomSkill) string { return strings.TrimSpace(sk.Name) }

func (s *skillService) List(ctx context.Context) ([]models.CustomSkill, error) {
	unlock := s.Vault.Lock(KeySkills)
	defer unlock()

	local, _, err := load[models.CustomSkill](ctx, s.Vault, KeySkills)
	if err != nil {
		return nil, err
	}

	remote, _, ok := reconcile(ctx, &s.base, EntitySkills, func(ctx context.Context, userID string) ([]models.CustomSkill, error) {
		return s.Remote.ListSkills(ctx, userID)
	})
	if !ok {
		return local, nil
	}

	res := syncx.Merge(local, remote, skillKey, nil)
	if err := store(ctx, s.Vault, KeySkills, res.Items); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *skillService) Save(ctx context.Context, skill models.CustomSkill) (models.CustomSkill, SyncResult, error) {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return models.CustomSkill{}, SyncResult{}, ErrEmptyName
	}
	if !skill.Proficiency.Valid() {
		return models.CustomSkill{}, SyncResult{}, fmt.Errorf("%w: %q", ErrInvalidProficiency, skill.Proficiency)
	}

	unlock := s.Vault.Lock(KeySkills)
	defer unlock()

	skills, _, err := load[models.CustomSkill](ctx, s.Vault, KeySkills)
	if err != nil {
		return models.CustomSkill{}, SyncResult{}, err
	}

	now := timex.NowMillis()
	skill.UpdatedAt = now
	if i := slices.IndexFunc(skills, func(sk models.CustomSkill) bool { return skillKey(sk) == skill.Name }); i >= 0 {
		skill.Name = skills[i].Name
		skill.CreatedAt = skills[i].CreatedAt
		skills[i] = skill
	} else {
		skill.CreatedAt = now
		skills = append(skills, skill)
	}
	if err := store(ctx, s.Vault, KeySkills, skills); err != nil {
		return models.CustomSkill{}, SyncResult{}, err
	}

	userID, ok := s.user(ctx)
	if !ok {
		return skill, localOnly, nil
	}
	return skill, s.push(ctx, EntitySkills, outbox.KindUpsert, skill.Name, skill, func(ctx context.Context) error {
		return s.Remote.UpsertSkill(ctx, userID, skill)
	}), nil
}

func (s *skillService) Delete(ctx context.Context, name string) (SyncResult, error) {
	unlock := s.Vault.Lock(KeySkills)
	defer unlock()

	skills, _, err := load[models.CustomSkill](ctx, s.Vault, KeySkills)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(skills, func(sk models.CustomSkill) bool { return skillKey(sk) == strings.TrimSpace(name) })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: skill %q", ErrNotFound, name)
	}
	name = skills[i].Name
	skills = slices.Delete(skills, i, i+1)
	if err := store(ctx, s.Vault, KeySkills, skills); err != nil {
		return SyncResult{}, err
	}

	userID, ok := s.user(ctx)
	if !ok {
		return localOnly, nil
	}
	return s.push(ctx, EntitySkills, outbox.KindDelete, name, nil, func(ctx context.Context) error {
		return s.Remote.DeleteSkill(ctx, userID, name)
	}), nil
}

func (s *skillService) replayOp(ctx context.Context, userID string, op outbox.Op) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if op.Kind == outbox.KindDelete {
		return s.Remote.DeleteSkill(rctx, userID, op.Key)
	}
	var sk models.CustomSkill
	if err := json.Unmarshal(op.Payload, &sk); err != nil {
		return fmt.Errorf("invalid queued skill %s: %w", op.Key, err)
	}
	return s.Remote.UpsertSkill(rctx, userID, sk)
}
