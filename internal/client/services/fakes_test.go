package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/dmitrijs2005/careerkeeper/internal/client/auth"
	"github.com/dmitrijs2005/careerkeeper/internal/client/auth/mocks"
	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/careerkeeper/internal/client/vault"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/logging"
	"go.uber.org/mock/gomock"
)

var errOffline = errors.New("remote offline")

// fakeRemote is an in-memory remote store for a single user. Setting
// failWrites or failReads makes the matching calls fail. lostAck makes
// InsertJob commit the row and still report an error.
type fakeRemote struct {
	Remote

	mu         sync.Mutex
	jobs       []models.Job
	resumes    []models.ResumeProfile
	skills     []models.CustomSkill
	roleModels []models.RoleModel
	targetJobs []models.TargetJob

	failWrites error
	failReads  error
	lostAck    error
	calls      []string
}

func (f *fakeRemote) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) setFailWrites(err error) {
	f.mu.Lock()
	f.failWrites = err
	f.mu.Unlock()
}

func upsertBy[T any](items []T, v T, match func(T) bool) []T {
	if i := slices.IndexFunc(items, match); i >= 0 {
		items[i] = v
		return items
	}
	return append(items, v)
}

func deleteBy[T any](items []T, match func(T) bool) []T {
	return slices.DeleteFunc(items, match)
}

func (f *fakeRemote) ListJobs(_ context.Context, _ string) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListJobs")
	if f.failReads != nil {
		return nil, f.failReads
	}
	return slices.Clone(f.jobs), nil
}

func (f *fakeRemote) InsertJob(_ context.Context, _ string, j models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertJob:" + j.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.jobs = append(f.jobs, j)
	return f.lostAck
}

func (f *fakeRemote) UpdateJob(_ context.Context, _ string, j models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateJob:" + j.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	i := slices.IndexFunc(f.jobs, func(x models.Job) bool { return x.ID == j.ID })
	if i < 0 {
		return common.ErrorNotFound
	}
	f.jobs[i] = j
	return nil
}

func (f *fakeRemote) UpsertJob(_ context.Context, _ string, j models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertJob:" + j.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.jobs = upsertBy(f.jobs, j, func(x models.Job) bool { return x.ID == j.ID })
	return nil
}

func (f *fakeRemote) DeleteJob(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteJob:" + id)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.jobs = deleteBy(f.jobs, func(x models.Job) bool { return x.ID == id })
	return nil
}

func (f *fakeRemote) ListResumes(_ context.Context, _ string) ([]models.ResumeProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListResumes")
	if f.failReads != nil {
		return nil, f.failReads
	}
	return slices.Clone(f.resumes), nil
}

func (f *fakeRemote) UpsertResume(_ context.Context, _ string, p models.ResumeProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertResume:" + p.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.resumes = upsertBy(f.resumes, p, func(x models.ResumeProfile) bool { return x.ID == p.ID })
	return nil
}

func (f *fakeRemote) DeleteResume(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteResume:" + id)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.resumes = deleteBy(f.resumes, func(x models.ResumeProfile) bool { return x.ID == id })
	return nil
}

func (f *fakeRemote) ListSkills(_ context.Context, _ string) ([]models.CustomSkill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSkills")
	if f.failReads != nil {
		return nil, f.failReads
	}
	return slices.Clone(f.skills), nil
}

func (f *fakeRemote) UpsertSkill(_ context.Context, _ string, sk models.CustomSkill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertSkill:" + sk.Name)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.skills = upsertBy(f.skills, sk, func(x models.CustomSkill) bool { return x.Name == sk.Name })
	return nil
}

func (f *fakeRemote) DeleteSkill(_ context.Context, _ string, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSkill:" + name)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.skills = deleteBy(f.skills, func(x models.CustomSkill) bool { return x.Name == name })
	return nil
}

func (f *fakeRemote) ListRoleModels(_ context.Context, _ string) ([]models.RoleModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRoleModels")
	if f.failReads != nil {
		return nil, f.failReads
	}
	return slices.Clone(f.roleModels), nil
}

func (f *fakeRemote) InsertRoleModel(_ context.Context, _ string, rm models.RoleModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertRoleModel:" + rm.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.roleModels = append(f.roleModels, rm)
	return nil
}

func (f *fakeRemote) UpsertRoleModel(_ context.Context, _ string, rm models.RoleModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertRoleModel:" + rm.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.roleModels = upsertBy(f.roleModels, rm, func(x models.RoleModel) bool { return x.ID == rm.ID })
	return nil
}

func (f *fakeRemote) DeleteRoleModel(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRoleModel:" + id)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.roleModels = deleteBy(f.roleModels, func(x models.RoleModel) bool { return x.ID == id })
	for i := range f.targetJobs {
		if f.targetJobs[i].RoleModelID == id {
			f.targetJobs[i].RoleModelID = ""
		}
	}
	return nil
}

func (f *fakeRemote) ListTargetJobs(_ context.Context, _ string) ([]models.TargetJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTargetJobs")
	if f.failReads != nil {
		return nil, f.failReads
	}
	return slices.Clone(f.targetJobs), nil
}

func (f *fakeRemote) UpsertTargetJob(_ context.Context, _ string, tj models.TargetJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertTargetJob:" + tj.ID)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.targetJobs = upsertBy(f.targetJobs, tj, func(x models.TargetJob) bool { return x.ID == tj.ID })
	return nil
}

func (f *fakeRemote) DeleteTargetJob(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTargetJob:" + id)
	if f.failWrites != nil {
		return f.failWrites
	}
	f.targetJobs = deleteBy(f.targetJobs, func(x models.TargetJob) bool { return x.ID == id })
	return nil
}

type fixture struct {
	deps   Deps
	vault  *vault.Vault
	outbox *outbox.Outbox
	remote *fakeRemote
}

func loggedIn(t *testing.T) auth.Session {
	t.Helper()
	ctrl := gomock.NewController(t)
	s := mocks.NewMockSession(ctrl)
	s.EXPECT().UserID(gomock.Any()).Return("u1", true).AnyTimes()
	return s
}

// newFixture wires the services against an in-memory vault. A nil session
// means anonymous.
func newFixture(t *testing.T, session auth.Session) *fixture {
	t.Helper()
	log := logging.NewDiscardLogger()
	v := vault.New(kv.NewMemoryRepository(), []byte("seed"), log)
	ob := outbox.New(v, log)
	r := &fakeRemote{}
	if session == nil {
		session = auth.Anonymous{}
	}
	return &fixture{
		deps: Deps{
			Vault:   v,
			Remote:  r,
			Session: session,
			Outbox:  ob,
			Logger:  log,
		},
		vault:  v,
		outbox: ob,
		remote: r,
	}
}
