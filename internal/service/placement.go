package service

import (
	"sort"

	"worktracker/internal/calendar"
	"worktracker/internal/model"
)

// DueTask is one entry of a day's "due" list. It is placed by its own
// deadline, never by the parent schedule's calendar position. Legacy entries
// come from the single-task fields of schedules that have no task rows.
type DueTask struct {
	ScheduleID int64      `json:"schedule_id"`
	TaskID     *int64     `json:"task_id,omitempty"`
	Content    string     `json:"content"`
	Deadline   model.Date `json:"deadline"`
	Completed  bool       `json:"completed"`
	Legacy     bool       `json:"legacy"`
}

// DayPlacement is everything visible on one calendar day. Task-type
// schedules sit in their own lane and do not expand over multi-day spans;
// meetings and deadlines appear on every day they cover.
type DayPlacement struct {
	Date     model.Date       `json:"date"`
	Events   []model.Schedule `json:"events"`
	TaskLane []model.Schedule `json:"task_lane"`
	DueTasks []DueTask        `json:"due_tasks"`
	Memo     *model.DailyMemo `json:"memo,omitempty"`
}

// CalendarView is the composed answer to a date-range query.
type CalendarView struct {
	Range calendar.Range  `json:"range"`
	Grid  []calendar.Cell `json:"grid,omitempty"`
	Days  []DayPlacement  `json:"days"`
}

// BuildDays places schedules, due tasks and memos onto each day of the
// range. Pure: callers fetch, this arranges.
func BuildDays(r calendar.Range, schedules []model.Schedule, tasks []model.Task, legacyDue []model.Schedule, memos []model.DailyMemo) []DayPlacement {
	memoByDate := make(map[model.Date]*model.DailyMemo, len(memos))
	for i := range memos {
		memoByDate[memos[i].MemoDate] = &memos[i]
	}

	scheduleByID := make(map[int64]*model.Schedule, len(schedules))
	for i := range schedules {
		scheduleByID[schedules[i].ID] = &schedules[i]
	}

	days := make([]DayPlacement, 0, r.Start.DaysBetween(r.End)+1)
	for _, date := range r.Dates() {
		day := DayPlacement{
			Date:     date,
			Events:   []model.Schedule{},
			TaskLane: []model.Schedule{},
			DueTasks: []DueTask{},
			Memo:     memoByDate[date],
		}

		for i := range schedules {
			s := &schedules[i]
			if s.Type == model.ScheduleTask {
				// Task-type schedules occupy only their start date.
				if s.ScheduleDate.Equal(date) {
					day.TaskLane = append(day.TaskLane, *s)
				}
				continue
			}
			if s.CoversDate(date) {
				day.Events = append(day.Events, *s)
			}
		}

		sortDaySchedules(day.Events)
		sortDaySchedules(day.TaskLane)

		for i := range tasks {
			t := &tasks[i]
			if t.Deadline == nil || !t.Deadline.Equal(date) {
				continue
			}
			id := t.ID
			day.DueTasks = append(day.DueTasks, DueTask{
				ScheduleID: t.ScheduleID,
				TaskID:     &id,
				Content:    t.Content,
				Deadline:   *t.Deadline,
				Completed:  t.IsCompleted,
			})
		}
		for i := range legacyDue {
			s := &legacyDue[i]
			if s.LegacyTaskDeadline == nil || !s.LegacyTaskDeadline.Equal(date) {
				continue
			}
			content := ""
			if s.LegacyTaskContent != nil {
				content = *s.LegacyTaskContent
			}
			day.DueTasks = append(day.DueTasks, DueTask{
				ScheduleID: s.ID,
				Content:    content,
				Deadline:   *s.LegacyTaskDeadline,
				Completed:  s.LegacyTaskCompleted,
				Legacy:     true,
			})
		}

		days = append(days, day)
	}
	return days
}

// sortDaySchedules orders a day's lane: schedules without a start time come
// first as a stable group, then timed ones ascending. HH:MM strings compare
// correctly as text. The sort must be stable so equal keys keep input order.
func sortDaySchedules(items []model.Schedule) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].StartTime, items[j].StartTime
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})
}

// ResolvedTasks is the tagged resolution of a schedule's effective task
// list: real task rows when any exist, otherwise the legacy single-task
// fields as one synthetic entry. The two are never merged.
type ResolvedTasks struct {
	Rows   []model.Task
	Legacy *DueTask
}

func ResolveTasks(s *model.Schedule, rows []model.Task) ResolvedTasks {
	if len(rows) > 0 {
		return ResolvedTasks{Rows: rows}
	}
	if s.LegacyTaskContent == nil && s.LegacyTaskDeadline == nil {
		return ResolvedTasks{}
	}
	content := ""
	if s.LegacyTaskContent != nil {
		content = *s.LegacyTaskContent
	}
	legacy := &DueTask{
		ScheduleID: s.ID,
		Content:    content,
		Completed:  s.LegacyTaskCompleted,
		Legacy:     true,
	}
	if s.LegacyTaskDeadline != nil {
		legacy.Deadline = *s.LegacyTaskDeadline
	}
	return ResolvedTasks{Legacy: legacy}
}
