package models

import (
	"fmt"
	"strings"
)

type JobStatus string

const (
	JobStatusSaved     JobStatus = "saved"
	JobStatusAnalyzing JobStatus = "analyzing"
	JobStatusApplied   JobStatus = "applied"
	JobStatusInterview JobStatus = "interview"
	JobStatusOffer     JobStatus = "offer"
	JobStatusRejected  JobStatus = "rejected"
	JobStatusGhosted   JobStatus = "ghosted"
	JobStatusError     JobStatus = "error"
	JobStatusFeed      JobStatus = "feed"
)

var jobStatuses = []JobStatus{
	JobStatusSaved, JobStatusAnalyzing, JobStatusApplied, JobStatusInterview,
	JobStatusOffer, JobStatusRejected, JobStatusGhosted, JobStatusError, JobStatusFeed,
}

func (s JobStatus) Valid() bool {
	for _, v := range jobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// BeforeSaved reports whether the job has not reached the "saved" stage yet
// (still being analyzed, failed analysis, or only seen in a feed).
func (s JobStatus) BeforeSaved() bool {
	switch s {
	case "", JobStatusAnalyzing, JobStatusError, JobStatusFeed:
		return true
	}
	return false
}

func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return st, nil
}

// Analysis is the result of matching a job against the user's resume.
type Analysis struct {
	MatchScore      int      `json:"matchScore"`
	Summary         string   `json:"summary,omitempty"`
	MatchingSkills  []string `json:"matchingSkills,omitempty"`
	MissingSkills   []string `json:"missingSkills,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func (a *Analysis) IsEmpty() bool {
	return a == nil || (a.MatchScore == 0 && a.Summary == "" &&
		len(a.MatchingSkills) == 0 && len(a.MissingSkills) == 0 && len(a.Recommendations) == 0)
}

// Job is a saved job posting.
type Job struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	Analysis    *Analysis `json:"analysis,omitempty"`
	DateAdded   int64     `json:"dateAdded"`
	ResumeID    string    `json:"resumeId,omitempty"`
}
