package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"worktracker/internal/calendar"
	"worktracker/internal/model"
	"worktracker/internal/repository"
	"worktracker/pkg/metrics"
	"worktracker/pkg/mq"
)

// EventPublisher is the outbound audit feed. Publish failures never fail
// the triggering operation.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ScheduleInput carries every caller-settable schedule field. Updates are
// full replacements of these fields.
type ScheduleInput struct {
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	ScheduleDate       model.Date  `json:"schedule_date"`
	EndDate            *model.Date `json:"end_date,omitempty"`
	StartTime          *string     `json:"start_time,omitempty"`
	EndTime            *string     `json:"end_time,omitempty"`
	Type               string      `json:"type"`
	Color              *string     `json:"color,omitempty"`
	ClientID           *int64      `json:"client_id,omitempty"`
	MilestoneIDs       []int64     `json:"milestone_ids"`
	EmailReminder      bool        `json:"email_reminder"`
	LegacyTaskContent  *string     `json:"task_content,omitempty"`
	LegacyTaskDeadline *model.Date `json:"task_deadline,omitempty"`
}

func (in *ScheduleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return model.Validationf("title is required")
	}
	if in.ScheduleDate.IsZero() {
		return model.Validationf("schedule_date is required")
	}
	if !model.ValidScheduleType(in.Type) {
		return model.Validationf("unknown schedule type %q", in.Type)
	}
	if in.EndDate != nil && in.EndDate.Before(in.ScheduleDate) {
		return model.Validationf("end_date %s is before schedule_date %s", in.EndDate, in.ScheduleDate)
	}
	for _, t := range []*string{in.StartTime, in.EndTime} {
		if t != nil && !timeOfDay.MatchString(*t) {
			return model.Validationf("invalid time of day %q", *t)
		}
	}
	return nil
}

// SchedulerService is the engine's facade: every exposed scheduling
// operation goes through here, each one a single logical transaction
// against the store.
type SchedulerService struct {
	store     repository.Store
	progress  *ProgressService
	publisher EventPublisher
	logger    *zap.Logger
}

func NewSchedulerService(store repository.Store, progress *ProgressService, publisher EventPublisher, logger *zap.Logger) *SchedulerService {
	return &SchedulerService{
		store:     store,
		progress:  progress,
		publisher: publisher,
		logger:    logger,
	}
}

// publish emits an audit event; failures are logged and swallowed, matching
// the non-fatal audit collaborator contract.
func (s *SchedulerService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

// CreateSchedule validates, writes the schedule and auto-promotes every
// referenced pending milestone to in_progress in the same transaction.
func (s *SchedulerService) CreateSchedule(ctx context.Context, in *ScheduleInput) (*model.Schedule, error) {
	if err := in.validate(); err != nil {
		metrics.IncrementFacadeOp("create_schedule", "rejected")
		return nil, err
	}

	var created *model.Schedule
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sched := &model.Schedule{
			Title:              in.Title,
			Description:        in.Description,
			ScheduleDate:       in.ScheduleDate,
			EndDate:            in.EndDate,
			StartTime:          in.StartTime,
			EndTime:            in.EndTime,
			Type:               in.Type,
			Color:              in.Color,
			ClientID:           in.ClientID,
			MilestoneIDs:       in.MilestoneIDs,
			EmailReminder:      in.EmailReminder,
			LegacyTaskContent:  in.LegacyTaskContent,
			LegacyTaskDeadline: in.LegacyTaskDeadline,
			CompletedDates:     []model.Date{},
		}
		id, err := tx.Schedules().Insert(ctx, sched)
		if err != nil {
			return err
		}
		if err := s.promotePendingMilestones(ctx, tx, in.MilestoneIDs); err != nil {
			return err
		}
		created, err = tx.Schedules().GetByID(ctx, id)
		return err
	})
	if err != nil {
		metrics.IncrementFacadeOp("create_schedule", "error")
		return nil, err
	}

	metrics.IncrementFacadeOp("create_schedule", "ok")
	s.progress.Invalidate(ctx)
	s.publish(mq.RoutingScheduleCreated, mq.ScheduleEventPayload{
		ScheduleID:   created.ID,
		Title:        created.Title,
		ScheduleDate: created.ScheduleDate.String(),
		Type:         created.Type,
	})
	return created, nil
}

// promotePendingMilestones moves referenced pending milestones straight to
// in_progress. Only pending ones are touched.
func (s *SchedulerService) promotePendingMilestones(ctx context.Context, tx repository.Store, milestoneIDs []int64) error {
	for _, id := range milestoneIDs {
		m, err := tx.Milestones().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m.Status != model.MilestonePending {
			continue
		}
		m.Status = model.MilestoneInProgress
		if err := tx.Milestones().Update(ctx, m); err != nil {
			return err
		}
		s.logger.Info("Milestone auto-promoted to in_progress",
			zap.Int64("milestone_id", m.ID),
		)
		metrics.IncrementMilestoneTransition(model.MilestonePending, model.MilestoneInProgress)
	}
	return nil
}

// UpdateSchedule replaces the caller-settable fields and re-derives the
// multi-day completion flag against the (possibly changed) span.
func (s *SchedulerService) UpdateSchedule(ctx context.Context, id int64, in *ScheduleInput) (*model.Schedule, error) {
	if err := in.validate(); err != nil {
		metrics.IncrementFacadeOp("update_schedule", "rejected")
		return nil, err
	}

	var updated *model.Schedule
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sched, err := tx.Schedules().GetByID(ctx, id)
		if err != nil {
			return err
		}
		sched.Title = in.Title
		sched.Description = in.Description
		sched.ScheduleDate = in.ScheduleDate
		sched.EndDate = in.EndDate
		sched.StartTime = in.StartTime
		sched.EndTime = in.EndTime
		sched.Type = in.Type
		sched.Color = in.Color
		sched.ClientID = in.ClientID
		sched.MilestoneIDs = in.MilestoneIDs
		sched.EmailReminder = in.EmailReminder
		sched.LegacyTaskContent = in.LegacyTaskContent
		sched.LegacyTaskDeadline = in.LegacyTaskDeadline
		if sched.MultiDay() {
			sched.IsCompleted = len(sched.CompletedDates) >= sched.SpanDays()
		}
		if err := tx.Schedules().Update(ctx, sched); err != nil {
			return err
		}
		if err := s.promotePendingMilestones(ctx, tx, in.MilestoneIDs); err != nil {
			return err
		}
		updated = sched
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("update_schedule", "error")
		return nil, err
	}

	metrics.IncrementFacadeOp("update_schedule", "ok")
	s.progress.Invalidate(ctx)
	s.publish(mq.RoutingScheduleUpdated, mq.ScheduleEventPayload{
		ScheduleID:   updated.ID,
		Title:        updated.Title,
		ScheduleDate: updated.ScheduleDate.String(),
		Type:         updated.Type,
	})
	return updated, nil
}

func (s *SchedulerService) DeleteSchedule(ctx context.Context, id int64) error {
	err := s.store.Schedules().Delete(ctx, id)
	if err != nil {
		metrics.IncrementFacadeOp("delete_schedule", "error")
		return err
	}
	metrics.IncrementFacadeOp("delete_schedule", "ok")
	s.publish(mq.RoutingScheduleDeleted, mq.ScheduleEventPayload{ScheduleID: id})
	return nil
}

// MoveSchedule reschedules to a new start date. Only schedule_date changes;
// an existing end_date stays where it is, so the span may shrink. A move
// that would put the start past the end is rejected instead of inverting
// the span.
func (s *SchedulerService) MoveSchedule(ctx context.Context, id int64, newDate model.Date) (*model.Schedule, error) {
	var moved *model.Schedule
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sched, err := tx.Schedules().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sched.EndDate != nil && newDate.After(*sched.EndDate) {
			return model.Validationf("cannot move schedule %d past its end_date %s", id, sched.EndDate)
		}
		sched.ScheduleDate = newDate
		if sched.MultiDay() {
			sched.IsCompleted = len(sched.CompletedDates) >= sched.SpanDays()
		}
		if err := tx.Schedules().Update(ctx, sched); err != nil {
			return err
		}
		moved = sched
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("move_schedule", "error")
		return nil, err
	}

	metrics.IncrementFacadeOp("move_schedule", "ok")
	s.publish(mq.RoutingScheduleMoved, mq.ScheduleEventPayload{
		ScheduleID:   moved.ID,
		Title:        moved.Title,
		ScheduleDate: moved.ScheduleDate.String(),
		Type:         moved.Type,
	})
	return moved, nil
}

// ToggleScheduleCompletion flips overall completion. For multi-day spans
// the per-date set follows: completing fills every date, un-completing
// clears them, keeping the cardinality rule intact.
func (s *SchedulerService) ToggleScheduleCompletion(ctx context.Context, id int64) (*model.Schedule, error) {
	var toggled *model.Schedule
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sched, err := tx.Schedules().GetByID(ctx, id)
		if err != nil {
			return err
		}
		sched.IsCompleted = !sched.IsCompleted
		if sched.MultiDay() {
			if sched.IsCompleted {
				sched.CompletedDates = calendar.Range{Start: sched.ScheduleDate, End: *sched.EndDate}.Dates()
			} else {
				sched.CompletedDates = []model.Date{}
			}
		}
		if err := tx.Schedules().Update(ctx, sched); err != nil {
			return err
		}
		toggled = sched
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("toggle_schedule", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("toggle_schedule", "ok")
	return toggled, nil
}

// ToggleScheduleDateCompletion flips one date of a multi-day span and
// re-derives overall completion from the date count, atomically with the
// toggle.
func (s *SchedulerService) ToggleScheduleDateCompletion(ctx context.Context, id int64, date model.Date) (*model.Schedule, error) {
	var toggled *model.Schedule
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sched, err := tx.Schedules().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !sched.MultiDay() {
			return model.Validationf("schedule %d is not multi-day", id)
		}
		if !sched.CoversDate(date) {
			return model.Validationf("date %s is outside schedule %d's span", date, id)
		}

		if sched.HasCompletedDate(date) {
			kept := sched.CompletedDates[:0]
			for _, d := range sched.CompletedDates {
				if !d.Equal(date) {
					kept = append(kept, d)
				}
			}
			sched.CompletedDates = kept
		} else {
			sched.CompletedDates = append(sched.CompletedDates, date)
		}
		sched.IsCompleted = len(sched.CompletedDates) >= sched.SpanDays()

		if err := tx.Schedules().Update(ctx, sched); err != nil {
			return err
		}
		toggled = sched
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("toggle_schedule_date", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("toggle_schedule_date", "ok")
	return toggled, nil
}

// CreateTask adds a sub-task row to a schedule. Once rows exist, the
// schedule's legacy single-task fields stop being read.
func (s *SchedulerService) CreateTask(ctx context.Context, scheduleID int64, content string, deadline *model.Date, orderIndex int) (*model.Task, error) {
	if strings.TrimSpace(content) == "" {
		metrics.IncrementFacadeOp("create_task", "rejected")
		return nil, model.Validationf("content is required")
	}

	if _, err := s.store.Schedules().GetByID(ctx, scheduleID); err != nil {
		metrics.IncrementFacadeOp("create_task", "error")
		return nil, err
	}

	task := &model.Task{
		ScheduleID: scheduleID,
		Content:    content,
		Deadline:   deadline,
		OrderIndex: orderIndex,
	}
	id, err := s.store.Tasks().Insert(ctx, task)
	if err != nil {
		metrics.IncrementFacadeOp("create_task", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("create_task", "ok")
	return s.store.Tasks().GetByID(ctx, id)
}

func (s *SchedulerService) UpdateTask(ctx context.Context, id int64, content string, deadline *model.Date, orderIndex int) (*model.Task, error) {
	if strings.TrimSpace(content) == "" {
		metrics.IncrementFacadeOp("update_task", "rejected")
		return nil, model.Validationf("content is required")
	}

	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		metrics.IncrementFacadeOp("update_task", "error")
		return nil, err
	}
	task.Content = content
	task.Deadline = deadline
	task.OrderIndex = orderIndex
	if err := s.store.Tasks().Update(ctx, task); err != nil {
		metrics.IncrementFacadeOp("update_task", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("update_task", "ok")
	return task, nil
}

func (s *SchedulerService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.store.Tasks().Delete(ctx, id); err != nil {
		metrics.IncrementFacadeOp("delete_task", "error")
		return err
	}
	metrics.IncrementFacadeOp("delete_task", "ok")
	return nil
}

// ToggleTaskCompletion flips a task and stamps or clears completed_at.
func (s *SchedulerService) ToggleTaskCompletion(ctx context.Context, id int64) (*model.Task, error) {
	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		metrics.IncrementFacadeOp("toggle_task", "error")
		return nil, err
	}
	task.IsCompleted = !task.IsCompleted
	if task.IsCompleted {
		now := time.Now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	if err := s.store.Tasks().Update(ctx, task); err != nil {
		metrics.IncrementFacadeOp("toggle_task", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("toggle_task", "ok")
	return task, nil
}

// ToggleMilestoneStatus advances the milestone one step along its cycle.
// The read, the next-state computation and the conditional write happen in
// one transaction; a concurrent toggle loses with ErrConflict.
func (s *SchedulerService) ToggleMilestoneStatus(ctx context.Context, id int64) (*model.Milestone, error) {
	var (
		toggled *model.Milestone
		from    string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		m, err := tx.Milestones().GetByID(ctx, id)
		if err != nil {
			return err
		}
		hasSchedules, err := tx.Schedules().ExistsForMilestone(ctx, id)
		if err != nil {
			return err
		}
		from = m.Status
		if err := AdvanceMilestone(m, hasSchedules, time.Now()); err != nil {
			return err
		}
		if err := tx.Milestones().Update(ctx, m); err != nil {
			return err
		}
		toggled = m
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("toggle_milestone", "error")
		return nil, err
	}

	metrics.IncrementFacadeOp("toggle_milestone", "ok")
	metrics.IncrementMilestoneTransition(from, toggled.Status)
	s.progress.Invalidate(ctx)
	s.publish(mq.RoutingMilestoneStatusChanged, mq.MilestoneStatusPayload{
		MilestoneID: toggled.ID,
		ProjectID:   toggled.ProjectID,
		From:        from,
		To:          toggled.Status,
	})
	return toggled, nil
}

// ToggleMilestoneReview flips the review flag. It gates completion but has
// no other side effect.
func (s *SchedulerService) ToggleMilestoneReview(ctx context.Context, id int64) (*model.Milestone, error) {
	var toggled *model.Milestone
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		m, err := tx.Milestones().GetByID(ctx, id)
		if err != nil {
			return err
		}
		m.ReviewCompleted = !m.ReviewCompleted
		if err := tx.Milestones().Update(ctx, m); err != nil {
			return err
		}
		toggled = m
		return nil
	})
	if err != nil {
		metrics.IncrementFacadeOp("toggle_review", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("toggle_review", "ok")
	s.progress.Invalidate(ctx)
	return toggled, nil
}

// UpsertDailyMemo creates or updates the memo for a date; content that
// trims to empty deletes it instead. Returns nil when no memo remains.
func (s *SchedulerService) UpsertDailyMemo(ctx context.Context, date model.Date, content string) (*model.DailyMemo, error) {
	if strings.TrimSpace(content) == "" {
		err := s.store.Memos().Delete(ctx, date)
		if err != nil && !isNotFound(err) {
			metrics.IncrementFacadeOp("upsert_memo", "error")
			return nil, err
		}
		metrics.IncrementFacadeOp("upsert_memo", "ok")
		s.publish(mq.RoutingMemoUpserted, mq.MemoEventPayload{Date: date.String(), Deleted: true})
		return nil, nil
	}

	memo := &model.DailyMemo{MemoDate: date, Content: content}
	if err := s.store.Memos().Upsert(ctx, memo); err != nil {
		metrics.IncrementFacadeOp("upsert_memo", "error")
		return nil, err
	}
	metrics.IncrementFacadeOp("upsert_memo", "ok")
	s.publish(mq.RoutingMemoUpserted, mq.MemoEventPayload{Date: date.String()})
	return s.store.Memos().Get(ctx, date)
}

func (s *SchedulerService) DeleteDailyMemo(ctx context.Context, date model.Date) error {
	if err := s.store.Memos().Delete(ctx, date); err != nil {
		metrics.IncrementFacadeOp("delete_memo", "error")
		return err
	}
	metrics.IncrementFacadeOp("delete_memo", "ok")
	s.publish(mq.RoutingMemoUpserted, mq.MemoEventPayload{Date: date.String(), Deleted: true})
	return nil
}

// CalendarViewFor resolves the reference date and mode into a range, then
// places everything visible in it.
func (s *SchedulerService) CalendarViewFor(ctx context.Context, ref model.Date, mode calendar.Mode, clientID *int64) (*CalendarView, error) {
	r := calendar.RangeFor(ref, mode)

	schedules, err := s.store.Schedules().ListOverlapping(ctx, r.Start, r.End, clientID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks().ListDueBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	legacyDue, err := s.store.Schedules().ListLegacyDueBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	memos, err := s.store.Memos().ListBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	view := &CalendarView{
		Range: r,
		Days:  BuildDays(r, schedules, tasks, legacyDue, memos),
	}
	if mode == calendar.ModeMonth {
		view.Grid = calendar.MonthGrid(ref)
	}
	return view, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
