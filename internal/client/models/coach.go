package models

import "encoding/json"

// RoleModel is a mentor profile; Content is free-form.
type RoleModel struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Headline  string          `json:"headline,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}

type Milestone struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TargetMonth string `json:"targetMonth,omitempty"`
	Completed   bool   `json:"completed"`
}

// TargetJob is a goal role with a roadmap. RoleModelID is set when the
// target follows a role model's path.
type TargetJob struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Goal        string      `json:"goal,omitempty"`
	RoleModelID string      `json:"roleModelId,omitempty"`
	Milestones  []Milestone `json:"milestones"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}

// Progress returns completed and total milestone counts.
func (t TargetJob) Progress() (done, total int) {
	for _, m := range t.Milestones {
		if m.Completed {
			done++
		}
	}
	return done, len(t.Milestones)
}
