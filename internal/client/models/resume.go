package models

import (
	"strings"
)

type BlockType string

const (
	BlockSummary   BlockType = "summary"
	BlockWork      BlockType = "work"
	BlockEducation BlockType = "education"
	BlockProject   BlockType = "project"
	BlockVolunteer BlockType = "volunteer"
	BlockSkill     BlockType = "skill"
	BlockOther     BlockType = "other"
)

// ExperienceBlock is one section entry of a resume.
type ExperienceBlock struct {
	ID           string    `json:"id"`
	Type         BlockType `json:"type"`
	Title        string    `json:"title"`
	Organization string    `json:"organization,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	EndDate      string    `json:"endDate,omitempty"`
	Bullets      []string  `json:"bullets"`
}

type ResumeProfile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Blocks    []ExperienceBlock `json:"blocks"`
	CreatedAt int64             `json:"createdAt"`
	UpdatedAt int64             `json:"updatedAt"`
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SameBlock reports structural equality: same type and the same title and
// organization ignoring case and whitespace.
func SameBlock(a, b ExperienceBlock) bool {
	return a.Type == b.Type &&
		normalize(a.Title) == normalize(b.Title) &&
		normalize(a.Organization) == normalize(b.Organization)
}

// UnionBullets appends the bullets of extra missing from base. Bullets are
// compared by trimmed text; blanks are dropped; order is preserved.
func UnionBullets(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, b := range list {
			t := strings.TrimSpace(b)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// MergeBlocks folds imported into existing. A block structurally equal to an
// existing one has its bullets unioned into it; anything else is appended.
func MergeBlocks(existing, imported []ExperienceBlock) []ExperienceBlock {
	out := make([]ExperienceBlock, len(existing), len(existing)+len(imported))
	copy(out, existing)

	for _, in := range imported {
		matched := false
		for i := range out {
			if SameBlock(out[i], in) {
				out[i].Bullets = UnionBullets(out[i].Bullets, in.Bullets)
				matched = true
				break
			}
		}
		if !matched {
			in.Bullets = UnionBullets(nil, in.Bullets)
			out = append(out, in)
		}
	}
	return out
}
