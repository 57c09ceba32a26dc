package models

import "fmt"

type Proficiency string

const (
	ProficiencyLearning    Proficiency = "learning"
	ProficiencyComfortable Proficiency = "comfortable"
	ProficiencyExpert      Proficiency = "expert"
)

func (p Proficiency) Valid() bool {
	switch p {
	case ProficiencyLearning, ProficiencyComfortable, ProficiencyExpert:
		return true
	}
	return false
}

func ParseProficiency(s string) (Proficiency, error) {
	p := Proficiency(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown proficiency %q", s)
	}
	return p, nil
}

// CustomSkill is unique per user by Name (exact match).
type CustomSkill struct {
	Name        string      `json:"name"`
	Proficiency Proficiency `json:"proficiency"`
	Evidence    string      `json:"evidence,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}
