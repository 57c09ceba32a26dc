package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// ListResumes returns the user's resume profiles, most recently updated first.
func (s *Store) ListResumes(ctx context.Context, userID string) ([]models.ResumeProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, blocks, created_at, updated_at FROM resumes
		WHERE user_id = $1 ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select resumes: %w", err)
	}
	defer rows.Close()

	var result []models.ResumeProfile
	for rows.Next() {
		var (
			p                models.ResumeProfile
			blocks           []byte
			created, updated string
		)
		if err := rows.Scan(&p.ID, &p.Name, &blocks, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		if len(blocks) > 0 {
			if err := json.Unmarshal(blocks, &p.Blocks); err != nil {
				return nil, fmt.Errorf("invalid blocks for resume %s: %w", p.ID, err)
			}
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return result, nil
}

func (s *Store) UpsertResume(ctx context.Context, userID string, p models.ResumeProfile) error {
	blocks, err := jsonArray(p.Blocks)
	if err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO resumes (id, user_id, name, blocks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			blocks = EXCLUDED.blocks,
			updated_at = EXCLUDED.updated_at
			WHERE resumes.user_id = EXCLUDED.user_id
	`, p.ID, userID, p.Name, blocks, timex.ToISO(p.CreatedAt), timex.ToISO(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert resume: %w", err)
	}
	return affectedOne(res, errOwnedByOther)
}

func (s *Store) DeleteResume(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}
