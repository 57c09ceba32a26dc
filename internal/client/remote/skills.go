package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// ListSkills returns the user's skills ordered by name.
func (s *Store) ListSkills(ctx context.Context, userID string) ([]models.CustomSkill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, proficiency, evidence, created_at, updated_at FROM skills
		WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select skills: %w", err)
	}
	defer rows.Close()

	var result []models.CustomSkill
	for rows.Next() {
		var (
			sk               models.CustomSkill
			prof             string
			created, updated string
		)
		if err := rows.Scan(&sk.Name, &prof, &sk.Evidence, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		sk.Proficiency = models.Proficiency(prof)
		if sk.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if sk.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		result = append(result, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skills: %w", err)
	}
	return result, nil
}

// UpsertSkill writes the skill keyed by (user_id, name). created_at of an
// existing row is kept.
func (s *Store) UpsertSkill(ctx context.Context, userID string, sk models.CustomSkill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skills (user_id, name, proficiency, evidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, name) DO UPDATE SET
			proficiency = EXCLUDED.proficiency,
			evidence = EXCLUDED.evidence,
			updated_at = EXCLUDED.updated_at
	`, userID, sk.Name, string(sk.Proficiency), sk.Evidence, timex.ToISO(sk.CreatedAt), timex.ToISO(sk.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert skill: %w", err)
	}
	return nil
}

func (s *Store) DeleteSkill(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM skills WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return nil
}
