package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

const jobColumns = `id, company, position, location, url, description, status, analysis, resume_id, created_at`

func scanJob(r rowsScanner) (models.Job, error) {
	var (
		j        models.Job
		status   string
		analysis []byte
		created  string
	)
	if err := r.Scan(&j.ID, &j.Company, &j.Position, &j.Location, &j.URL, &j.Description,
		&status, &analysis, &j.ResumeID, &created); err != nil {
		return models.Job{}, err
	}
	j.Status = models.JobStatus(status)
	if len(analysis) > 0 {
		var a models.Analysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return models.Job{}, fmt.Errorf("invalid analysis for job %s: %w", j.ID, err)
		}
		j.Analysis = &a
	}
	ms, err := parseTime(created)
	if err != nil {
		return models.Job{}, err
	}
	j.DateAdded = ms
	return j, nil
}

func jobArgs(userID string, j models.Job) ([]any, error) {
	analysis, err := nullableJSON(j.Analysis, j.Analysis.IsEmpty())
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	return []any{
		j.ID, userID, j.Company, j.Position, j.Location, j.URL, j.Description,
		string(j.Status), analysis, j.ResumeID, timex.ToISO(j.DateAdded),
	}, nil
}

// ListJobs returns the user's jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, userID string) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs: %w", err)
	}
	defer rows.Close()

	var result []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return result, nil
}

func (s *Store) InsertJob(ctx context.Context, userID string, j models.Job) error {
	args, err := jobArgs(userID, j)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, user_id, company, position, location, url, description, status, analysis, resume_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// UpdateJob overwrites the job with j.ID. common.ErrorNotFound when the user
// has no such job.
func (s *Store) UpdateJob(ctx context.Context, userID string, j models.Job) error {
	args, err := jobArgs(userID, j)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET company = $3, position = $4, location = $5, url = $6, description = $7,
			status = $8, analysis = $9, resume_id = $10, created_at = $11
		WHERE id = $1 AND user_id = $2
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return affectedOne(res, common.ErrorNotFound)
}

// UpsertJob inserts or overwrites by id. Rows owned by another user are left
// untouched.
func (s *Store) UpsertJob(ctx context.Context, userID string, j models.Job) error {
	args, err := jobArgs(userID, j)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, user_id, company, position, location, url, description, status, analysis, resume_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			position = EXCLUDED.position,
			location = EXCLUDED.location,
			url = EXCLUDED.url,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			analysis = EXCLUDED.analysis,
			resume_id = EXCLUDED.resume_id,
			created_at = EXCLUDED.created_at
			WHERE jobs.user_id = EXCLUDED.user_id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert job: %w", err)
	}
	return affectedOne(res, errOwnedByOther)
}

// DeleteJob is idempotent: deleting a missing job is not an error.
func (s *Store) DeleteJob(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
