package model

import "time"

// Schedule types. Task-type schedules occupy a separate calendar lane and
// never expand across their end_date; meetings and deadlines do.
const (
	ScheduleTask     = "task"
	ScheduleMeeting  = "meeting"
	ScheduleDeadline = "deadline"
)

type Schedule struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ScheduleDate Date    `json:"schedule_date"`
	EndDate      *Date   `json:"end_date,omitempty"`
	StartTime    *string `json:"start_time,omitempty"` // HH:MM
	EndTime      *string `json:"end_time,omitempty"`   // HH:MM
	Type         string  `json:"type"`
	Color        *string `json:"color,omitempty"`
	ClientID     *int64  `json:"client_id,omitempty"`
	// MilestoneIDs is an ordered set; the first element doubles as the
	// legacy "primary" milestone reference.
	MilestoneIDs   []int64 `json:"milestone_ids"`
	IsCompleted    bool    `json:"is_completed"`
	CompletedDates []Date  `json:"completed_dates,omitempty"`
	EmailReminder  bool    `json:"email_reminder"`

	// Legacy single-task fields, read only when no Task rows exist.
	LegacyTaskContent   *string `json:"task_content,omitempty"`
	LegacyTaskDeadline  *Date   `json:"task_deadline,omitempty"`
	LegacyTaskCompleted bool    `json:"task_completed"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidScheduleType(s string) bool {
	switch s {
	case ScheduleTask, ScheduleMeeting, ScheduleDeadline:
		return true
	}
	return false
}

// SpanDays is the number of calendar days the schedule covers, at least 1.
func (s *Schedule) SpanDays() int {
	if s.EndDate == nil {
		return 1
	}
	return s.ScheduleDate.DaysBetween(*s.EndDate) + 1
}

// MultiDay reports whether the schedule covers more than one day.
func (s *Schedule) MultiDay() bool {
	return s.EndDate != nil && s.EndDate.After(s.ScheduleDate)
}

// CoversDate reports whether the schedule's span includes the given date.
func (s *Schedule) CoversDate(d Date) bool {
	if d.Before(s.ScheduleDate) {
		return false
	}
	if s.EndDate == nil {
		return d.Equal(s.ScheduleDate)
	}
	return !d.After(*s.EndDate)
}

// HasCompletedDate reports whether d is marked done in a multi-day span.
func (s *Schedule) HasCompletedDate(d Date) bool {
	for _, c := range s.CompletedDates {
		if c.Equal(d) {
			return true
		}
	}
	return false
}
