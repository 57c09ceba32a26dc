package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/dbx"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// ListRoleModels returns the user's role models, newest first.
func (s *Store) ListRoleModels(ctx context.Context, userID string) ([]models.RoleModel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, headline, content, created_at FROM role_models
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select role models: %w", err)
	}
	defer rows.Close()

	var result []models.RoleModel
	for rows.Next() {
		var (
			rm      models.RoleModel
			content []byte
			created string
		)
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Headline, &content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan role model: %w", err)
		}
		if len(content) > 0 {
			rm.Content = json.RawMessage(content)
		}
		if rm.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		result = append(result, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role models: %w", err)
	}
	return result, nil
}

func roleModelContent(rm models.RoleModel) any {
	if len(rm.Content) == 0 {
		return nil
	}
	return []byte(rm.Content)
}

func (s *Store) InsertRoleModel(ctx context.Context, userID string, rm models.RoleModel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_models (id, user_id, name, headline, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rm.ID, userID, rm.Name, rm.Headline, roleModelContent(rm), timex.ToISO(rm.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert role model: %w", err)
	}
	return nil
}

func (s *Store) UpsertRoleModel(ctx context.Context, userID string, rm models.RoleModel) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO role_models (id, user_id, name, headline, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			headline = EXCLUDED.headline,
			content = EXCLUDED.content
			WHERE role_models.user_id = EXCLUDED.user_id
	`, rm.ID, userID, rm.Name, rm.Headline, roleModelContent(rm), timex.ToISO(rm.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert role model: %w", err)
	}
	return affectedOne(res, errOwnedByOther)
}

// DeleteRoleModel removes the role model and clears target-job references to
// it in one transaction.
func (s *Store) DeleteRoleModel(ctx context.Context, userID, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE target_jobs SET role_model_id = NULL
			WHERE user_id = $1 AND role_model_id = $2
		`, userID, id); err != nil {
			return fmt.Errorf("failed to clear role model references: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM role_models WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
			return fmt.Errorf("failed to delete role model: %w", err)
		}
		return nil
	})
}

// ListTargetJobs returns the user's target jobs, most recently updated first.
func (s *Store) ListTargetJobs(ctx context.Context, userID string) ([]models.TargetJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, goal, role_model_id, milestones, created_at, updated_at FROM target_jobs
		WHERE user_id = $1 ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select target jobs: %w", err)
	}
	defer rows.Close()

	var result []models.TargetJob
	for rows.Next() {
		var (
			tj               models.TargetJob
			roleModelID      sql.NullString
			milestones       []byte
			created, updated string
		)
		if err := rows.Scan(&tj.ID, &tj.Title, &tj.Goal, &roleModelID, &milestones, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan target job: %w", err)
		}
		tj.RoleModelID = roleModelID.String
		if len(milestones) > 0 {
			if err := json.Unmarshal(milestones, &tj.Milestones); err != nil {
				return nil, fmt.Errorf("invalid milestones for target job %s: %w", tj.ID, err)
			}
		}
		if tj.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if tj.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		result = append(result, tj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate target jobs: %w", err)
	}
	return result, nil
}

func (s *Store) UpsertTargetJob(ctx context.Context, userID string, tj models.TargetJob) error {
	milestones, err := jsonArray(tj.Milestones)
	if err != nil {
		return fmt.Errorf("failed to encode milestones: %w", err)
	}
	roleModelID := sql.NullString{String: tj.RoleModelID, Valid: tj.RoleModelID != ""}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO target_jobs (id, user_id, title, goal, role_model_id, milestones, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			goal = EXCLUDED.goal,
			role_model_id = EXCLUDED.role_model_id,
			milestones = EXCLUDED.milestones,
			updated_at = EXCLUDED.updated_at
			WHERE target_jobs.user_id = EXCLUDED.user_id
	`, tj.ID, userID, tj.Title, tj.Goal, roleModelID, milestones, timex.ToISO(tj.CreatedAt), timex.ToISO(tj.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert target job: %w", err)
	}
	return affectedOne(res, errOwnedByOther)
}

func (s *Store) DeleteTargetJob(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM target_jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete target job: %w", err)
	}
	return nil
}
