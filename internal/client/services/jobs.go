package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/outbox"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/syncx"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
	"github.com/google/uuid"
)

// MinDescriptionLength is the trimmed rune count below which a remote job
// description is considered truncated and a longer local one is grafted on.
const MinDescriptionLength = 50

type JobService interface {
	List(ctx context.Context) ([]models.Job, error)
	Add(ctx context.Context, job models.Job) (models.Job, SyncResult, error)
	Update(ctx context.Context, job models.Job) (SyncResult, error)
	SetStatus(ctx context.Context, id string, status models.JobStatus) (SyncResult, error)
	SetAnalysis(ctx context.Context, id string, analysis *models.Analysis) (SyncResult, error)
	Delete(ctx context.Context, id string) (SyncResult, error)
}

type jobService struct {
	base
}

func NewJobService(d Deps) JobService {
	s := &jobService{base{d}}
	d.Outbox.Register(EntityJobs, s.replayOp)
	return s
}

func jobKey(j models.Job) string { return j.ID }

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// healJob keeps the remote job but grafts richer local fields onto it: the
// local analysis when the remote has none, and the local description when the
// remote one looks truncated.
func healJob(local, remote models.Job) (models.Job, bool) {
	merged := remote
	repaired := false

	if remote.Analysis.IsEmpty() && !local.Analysis.IsEmpty() {
		merged.Analysis = local.Analysis
		repaired = true
	}

	remoteLen := runeLen(remote.Description)
	if remoteLen < MinDescriptionLength && runeLen(local.Description) > remoteLen {
		merged.Description = local.Description
		repaired = true
	}

	return merged, repaired
}

func (s *jobService) List(ctx context.Context) ([]models.Job, error) {
	unlock := s.Vault.Lock(KeyJobs)
	defer unlock()

	local, _, err := load[models.Job](ctx, s.Vault, KeyJobs)
	if err != nil {
		return nil, err
	}

	remote, _, ok := reconcile(ctx, &s.base, EntityJobs, func(ctx context.Context, userID string) ([]models.Job, error) {
		return s.Remote.ListJobs(ctx, userID)
	})
	if !ok {
		return local, nil
	}

	res := syncx.Merge(local, remote, jobKey, healJob)
	if err := store(ctx, s.Vault, KeyJobs, res.Items); err != nil {
		return nil, err
	}

	for _, j := range res.Repaired {
		r := s.sync(ctx, outbox.KindUpdate, j)
		s.Logger.Info(ctx, "repaired remote job", "id", j.ID, "sync", r.Status)
	}

	return res.Items, nil
}

func (s *jobService) Add(ctx context.Context, job models.Job) (models.Job, SyncResult, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusAnalyzing
	}
	if !job.Status.Valid() {
		return models.Job{}, SyncResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, job.Status)
	}
	if job.DateAdded == 0 {
		job.DateAdded = timex.NowMillis()
	}

	unlock := s.Vault.Lock(KeyJobs)
	defer unlock()

	jobs, _, err := load[models.Job](ctx, s.Vault, KeyJobs)
	if err != nil {
		return models.Job{}, SyncResult{}, err
	}
	jobs = slices.Insert(jobs, 0, job)
	if err := store(ctx, s.Vault, KeyJobs, jobs); err != nil {
		return models.Job{}, SyncResult{}, err
	}

	return job, s.sync(ctx, outbox.KindInsert, job), nil
}

// modify applies fn to the job with id and persists the result.
func (s *jobService) modify(ctx context.Context, id string, fn func(*models.Job)) (SyncResult, error) {
	unlock := s.Vault.Lock(KeyJobs)
	defer unlock()

	jobs, _, err := load[models.Job](ctx, s.Vault, KeyJobs)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(jobs, func(j models.Job) bool { return j.ID == id })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}

	fn(&jobs[i])
	if err := store(ctx, s.Vault, KeyJobs, jobs); err != nil {
		return SyncResult{}, err
	}

	return s.sync(ctx, outbox.KindUpdate, jobs[i]), nil
}

// Update replaces the stored job with the same id.
func (s *jobService) Update(ctx context.Context, job models.Job) (SyncResult, error) {
	if !job.Status.Valid() {
		return SyncResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, job.Status)
	}
	return s.modify(ctx, job.ID, func(j *models.Job) { *j = job })
}

func (s *jobService) SetStatus(ctx context.Context, id string, status models.JobStatus) (SyncResult, error) {
	if !status.Valid() {
		return SyncResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.modify(ctx, id, func(j *models.Job) { j.Status = status })
}

// SetAnalysis stores the analysis and moves a job that was still being
// analyzed to "saved"; later stages are kept.
func (s *jobService) SetAnalysis(ctx context.Context, id string, analysis *models.Analysis) (SyncResult, error) {
	return s.modify(ctx, id, func(j *models.Job) {
		j.Analysis = analysis
		if j.Status.BeforeSaved() {
			j.Status = models.JobStatusSaved
		}
	})
}

func (s *jobService) Delete(ctx context.Context, id string) (SyncResult, error) {
	unlock := s.Vault.Lock(KeyJobs)
	defer unlock()

	jobs, _, err := load[models.Job](ctx, s.Vault, KeyJobs)
	if err != nil {
		return SyncResult{}, err
	}
	i := slices.IndexFunc(jobs, func(j models.Job) bool { return j.ID == id })
	if i < 0 {
		return SyncResult{}, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	jobs = slices.Delete(jobs, i, i+1)
	if err := store(ctx, s.Vault, KeyJobs, jobs); err != nil {
		return SyncResult{}, err
	}

	return s.sync(ctx, outbox.KindDelete, models.Job{ID: id}), nil
}

func (s *jobService) sync(ctx context.Context, kind outbox.Kind, job models.Job) SyncResult {
	userID, ok := s.user(ctx)
	if !ok {
		return localOnly
	}

	var payload any = job
	if kind == outbox.KindDelete {
		payload = nil
	}
	return s.push(ctx, EntityJobs, kind, job.ID, payload, func(ctx context.Context) error {
		return s.send(ctx, userID, kind, job)
	})
}

func (s *jobService) send(ctx context.Context, userID string, kind outbox.Kind, job models.Job) error {
	switch kind {
	case outbox.KindInsert:
		return s.Remote.InsertJob(ctx, userID, job)
	case outbox.KindUpdate:
		// Jobs created while offline have no remote row yet.
		err := s.Remote.UpdateJob(ctx, userID, job)
		if errors.Is(err, common.ErrorNotFound) {
			return s.Remote.UpsertJob(ctx, userID, job)
		}
		return err
	case outbox.KindDelete:
		return s.Remote.DeleteJob(ctx, userID, job.ID)
	default:
		return s.Remote.UpsertJob(ctx, userID, job)
	}
}

// replayOp delivers a queued job write. Inserts are replayed as upserts so a
// retry after a lost acknowledgement does not fail on the primary key.
func (s *jobService) replayOp(ctx context.Context, userID string, op outbox.Op) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if op.Kind == outbox.KindDelete {
		return s.Remote.DeleteJob(rctx, userID, op.Key)
	}
	var job models.Job
	if err := json.Unmarshal(op.Payload, &job); err != nil {
		return fmt.Errorf("invalid queued job %s: %w", op.Key, err)
	}
	return s.Remote.UpsertJob(rctx, userID, job)
}
