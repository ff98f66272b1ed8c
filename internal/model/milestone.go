package model

import "time"

// Milestone statuses form the cycle described by the lifecycle table in
// internal/service. completed_at is set exactly while status is completed.
const (
	MilestonePending       = "pending"
	MilestoneInProgress    = "in_progress"
	MilestoneReviewPending = "review_pending"
	MilestoneCompleted     = "completed"
)

type Milestone struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"project_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	TargetDate      *Date      `json:"target_date,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ReviewCompleted bool       `json:"review_completed"`
	OrderIndex      int        `json:"order_index"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ValidMilestoneStatus(s string) bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneReviewPending, MilestoneCompleted:
		return true
	}
	return false
}
