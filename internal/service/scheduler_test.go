package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worktracker/internal/calendar"
	"worktracker/internal/model"
	"worktracker/internal/repository"
)

var _ repository.Store = (*fakeStore)(nil)

type capturedEvent struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	events []capturedEvent
}

func (p *fakePublisher) Publish(routingKey string, payload any) error {
	p.events = append(p.events, capturedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func newTestScheduler(store *fakeStore) (*SchedulerService, *fakePublisher) {
	logger := zap.NewNop()
	publisher := &fakePublisher{}
	progress := NewProgressService(store, nil, logger)
	return NewSchedulerService(store, progress, publisher, logger), publisher
}

func validInput() *ScheduleInput {
	return &ScheduleInput{
		Title:        "kickoff",
		ScheduleDate: model.NewDate(2026, time.January, 10),
		Type:         model.ScheduleMeeting,
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	svc, _ := newTestScheduler(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*ScheduleInput)
	}{
		{name: "missing title", mutate: func(in *ScheduleInput) { in.Title = "  " }},
		{name: "missing date", mutate: func(in *ScheduleInput) { in.ScheduleDate = model.Date{} }},
		{name: "unknown type", mutate: func(in *ScheduleInput) { in.Type = "errand" }},
		{name: "end before start", mutate: func(in *ScheduleInput) {
			in.EndDate = datePtr(in.ScheduleDate.AddDays(-1))
		}},
		{name: "bad start time", mutate: func(in *ScheduleInput) { in.StartTime = strPtr("25:00") }},
		{name: "bad end time", mutate: func(in *ScheduleInput) { in.EndTime = strPtr("9:5") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			_, err := svc.CreateSchedule(ctx, in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestCreateSchedulePromotesPendingMilestones(t *testing.T) {
	store := newFakeStore()
	pending := store.addMilestone(model.Milestone{Status: model.MilestonePending})
	inProgress := store.addMilestone(model.Milestone{Status: model.MilestoneReviewPending})
	svc, publisher := newTestScheduler(store)

	in := validInput()
	in.MilestoneIDs = []int64{pending.ID, inProgress.ID}

	created, err := svc.CreateSchedule(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []int64{pending.ID, inProgress.ID}, created.MilestoneIDs)

	assert.Equal(t, model.MilestoneInProgress, store.milestones[pending.ID].Status)
	// Non-pending milestones keep their status.
	assert.Equal(t, model.MilestoneReviewPending, store.milestones[inProgress.ID].Status)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "schedule.created", publisher.events[0].routingKey)
}

func TestMoveSchedule(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "offsite",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		EndDate:      datePtr(model.NewDate(2026, time.January, 12)),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	// Moving past end_date is rejected, nothing changes.
	_, err := svc.MoveSchedule(ctx, sched.ID, model.NewDate(2026, time.January, 13))
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, model.NewDate(2026, time.January, 10), store.schedules[sched.ID].ScheduleDate)

	// Shrinking the span is allowed.
	moved, err := svc.MoveSchedule(ctx, sched.ID, model.NewDate(2026, time.January, 12))
	require.NoError(t, err)
	assert.Equal(t, model.NewDate(2026, time.January, 12), moved.ScheduleDate)

	_, err = svc.MoveSchedule(ctx, 999, model.NewDate(2026, time.January, 1))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestToggleScheduleCompletionSingleDay(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "standup",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	toggled, err := svc.ToggleScheduleCompletion(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)

	toggled, err = svc.ToggleScheduleCompletion(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)
}

func TestToggleScheduleCompletionMultiDayFillsDates(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "sprint",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		EndDate:      datePtr(model.NewDate(2026, time.January, 12)),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	toggled, err := svc.ToggleScheduleCompletion(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	assert.Len(t, toggled.CompletedDates, 3)

	toggled, err = svc.ToggleScheduleCompletion(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)
	assert.Empty(t, toggled.CompletedDates)
}

func TestToggleScheduleDateCompletion(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "sprint",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		EndDate:      datePtr(model.NewDate(2026, time.January, 12)),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	day1 := model.NewDate(2026, time.January, 10)
	day2 := model.NewDate(2026, time.January, 11)
	day3 := model.NewDate(2026, time.January, 12)

	toggled, err := svc.ToggleScheduleDateCompletion(ctx, sched.ID, day1)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)

	toggled, err = svc.ToggleScheduleDateCompletion(ctx, sched.ID, day2)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)

	// The third date completes the span.
	toggled, err = svc.ToggleScheduleDateCompletion(ctx, sched.ID, day3)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	assert.Len(t, toggled.CompletedDates, 3)

	// Untoggling any one date takes it back below the threshold.
	toggled, err = svc.ToggleScheduleDateCompletion(ctx, sched.ID, day2)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)
	assert.Len(t, toggled.CompletedDates, 2)
}

func TestToggleScheduleDateCompletionRejections(t *testing.T) {
	store := newFakeStore()
	single := store.addSchedule(model.Schedule{
		Title:        "standup",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
	})
	multi := store.addSchedule(model.Schedule{
		Title:        "sprint",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		EndDate:      datePtr(model.NewDate(2026, time.January, 12)),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	_, err := svc.ToggleScheduleDateCompletion(ctx, single.ID, model.NewDate(2026, time.January, 10))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.ToggleScheduleDateCompletion(ctx, multi.ID, model.NewDate(2026, time.January, 13))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestToggleMilestoneStatusCycle(t *testing.T) {
	store := newFakeStore()
	m := store.addMilestone(model.Milestone{Status: model.MilestonePending, ReviewCompleted: true})
	svc, publisher := newTestScheduler(store)
	ctx := context.Background()

	want := []string{
		model.MilestoneInProgress,
		model.MilestoneReviewPending,
		model.MilestoneCompleted,
		model.MilestonePending,
	}
	for _, expected := range want {
		toggled, err := svc.ToggleMilestoneStatus(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, toggled.Status)
	}

	// completed_at was stamped on completion and cleared on leaving it.
	assert.Nil(t, store.milestones[m.ID].CompletedAt)
	assert.Len(t, publisher.events, 4)
	assert.Equal(t, "milestone.status_changed", publisher.events[0].routingKey)
}

func TestToggleMilestoneStatusReviewGate(t *testing.T) {
	store := newFakeStore()
	m := store.addMilestone(model.Milestone{Status: model.MilestoneReviewPending})
	svc, publisher := newTestScheduler(store)
	ctx := context.Background()

	_, err := svc.ToggleMilestoneStatus(ctx, m.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, model.MilestoneReviewPending, store.milestones[m.ID].Status)
	assert.Empty(t, publisher.events)

	_, err = svc.ToggleMilestoneReview(ctx, m.ID)
	require.NoError(t, err)

	toggled, err := svc.ToggleMilestoneStatus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneCompleted, toggled.Status)
	require.NotNil(t, toggled.CompletedAt)
}

func TestToggleMilestoneStatusWithSchedulesSkipsPending(t *testing.T) {
	store := newFakeStore()
	m := store.addMilestone(model.Milestone{Status: model.MilestoneCompleted, ReviewCompleted: true})
	store.addSchedule(model.Schedule{
		Title:        "linked",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		MilestoneIDs: []int64{m.ID},
	})
	svc, _ := newTestScheduler(store)

	toggled, err := svc.ToggleMilestoneStatus(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneInProgress, toggled.Status)
}

func TestToggleTaskCompletion(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "parent",
		Type:         model.ScheduleTask,
		ScheduleDate: model.NewDate(2026, time.January, 10),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, sched.ID, "ship it", nil, 0)
	require.NoError(t, err)

	toggled, err := svc.ToggleTaskCompletion(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	require.NotNil(t, toggled.CompletedAt)

	toggled, err = svc.ToggleTaskCompletion(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)
	assert.Nil(t, toggled.CompletedAt)
}

func TestCreateTaskRequiresSchedule(t *testing.T) {
	svc, _ := newTestScheduler(newFakeStore())
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, 42, "orphan", nil, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.CreateTask(ctx, 42, "   ", nil, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpsertDailyMemo(t *testing.T) {
	store := newFakeStore()
	svc, publisher := newTestScheduler(store)
	ctx := context.Background()
	date := model.NewDate(2026, time.January, 10)

	memo, err := svc.UpsertDailyMemo(ctx, date, "call the office")
	require.NoError(t, err)
	require.NotNil(t, memo)
	assert.Equal(t, "call the office", memo.Content)

	memo, err = svc.UpsertDailyMemo(ctx, date, "updated note")
	require.NoError(t, err)
	assert.Equal(t, "updated note", memo.Content)

	// Whitespace-only content deletes the memo.
	memo, err = svc.UpsertDailyMemo(ctx, date, "   ")
	require.NoError(t, err)
	assert.Nil(t, memo)
	assert.Empty(t, store.memos)

	// Deleting an absent memo through upsert is not an error.
	memo, err = svc.UpsertDailyMemo(ctx, date, "")
	require.NoError(t, err)
	assert.Nil(t, memo)

	assert.Len(t, publisher.events, 4)
	assert.Equal(t, "memo.upserted", publisher.events[0].routingKey)
}

func TestDeleteDailyMemo(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestScheduler(store)
	ctx := context.Background()
	date := model.NewDate(2026, time.January, 10)

	_, err := svc.UpsertDailyMemo(ctx, date, "note")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDailyMemo(ctx, date))
	assert.ErrorIs(t, svc.DeleteDailyMemo(ctx, date), model.ErrNotFound)
}

func TestCalendarViewFor(t *testing.T) {
	store := newFakeStore()
	store.addSchedule(model.Schedule{
		Title:        "offsite",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 7),
	})
	svc, _ := newTestScheduler(store)
	ctx := context.Background()

	view, err := svc.CalendarViewFor(ctx, model.NewDate(2026, time.January, 7), calendar.ModeWeek, nil)
	require.NoError(t, err)
	assert.Len(t, view.Days, 7)
	assert.Empty(t, view.Grid)
	assert.Equal(t, model.NewDate(2026, time.January, 4), view.Range.Start)

	found := false
	for _, day := range view.Days {
		if len(day.Events) > 0 {
			found = true
			assert.Equal(t, model.NewDate(2026, time.January, 7), day.Date)
		}
	}
	assert.True(t, found)

	view, err = svc.CalendarViewFor(ctx, model.NewDate(2026, time.January, 7), calendar.ModeMonth, nil)
	require.NoError(t, err)
	assert.Len(t, view.Days, 31)
	assert.NotEmpty(t, view.Grid)
}

func TestCalendarViewForClientFilter(t *testing.T) {
	store := newFakeStore()
	clientA := int64(1)
	clientB := int64(2)
	store.addSchedule(model.Schedule{
		Title:        "for A",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 7),
		ClientID:     &clientA,
	})
	store.addSchedule(model.Schedule{
		Title:        "for B",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 7),
		ClientID:     &clientB,
	})
	svc, _ := newTestScheduler(store)

	view, err := svc.CalendarViewFor(context.Background(), model.NewDate(2026, time.January, 7), calendar.ModeWeek, &clientA)
	require.NoError(t, err)

	var titles []string
	for _, day := range view.Days {
		for _, e := range day.Events {
			titles = append(titles, e.Title)
		}
	}
	assert.Equal(t, []string{"for A"}, titles)
}

func TestUpdateScheduleRederivesCompletion(t *testing.T) {
	store := newFakeStore()
	sched := store.addSchedule(model.Schedule{
		Title:        "sprint",
		Type:         model.ScheduleMeeting,
		ScheduleDate: model.NewDate(2026, time.January, 10),
		EndDate:      datePtr(model.NewDate(2026, time.January, 11)),
		CompletedDates: []model.Date{
			model.NewDate(2026, time.January, 10),
			model.NewDate(2026, time.January, 11),
		},
		IsCompleted: true,
	})
	svc, _ := newTestScheduler(store)

	// Extending the span makes the two completed dates insufficient.
	in := validInput()
	in.Title = "sprint"
	in.ScheduleDate = model.NewDate(2026, time.January, 10)
	in.EndDate = datePtr(model.NewDate(2026, time.January, 13))

	updated, err := svc.UpdateSchedule(context.Background(), sched.ID, in)
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
	assert.Len(t, updated.CompletedDates, 2)
}
