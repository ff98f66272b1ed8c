package model

import "time"

// Task is a deadline-bearing sub-item of a Schedule. It is placed on the
// calendar by its own deadline, not by its parent schedule's dates.
type Task struct {
	ID          int64      `json:"id"`
	ScheduleID  int64      `json:"schedule_id"`
	Content     string     `json:"content"`
	Deadline    *Date      `json:"deadline,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OrderIndex  int        `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
