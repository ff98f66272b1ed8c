package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktracker/internal/model"
)

func TestComputeSummaryPercentages(t *testing.T) {
	today := model.NewDate(2026, time.January, 15)

	clients := []model.Client{{ID: 1, Name: "Acme", Color: "#ff0000"}}
	projects := []model.Project{{ID: 10, ClientID: 1, Name: "Website"}}
	milestones := []model.Milestone{
		{ID: 100, ProjectID: 10, Status: model.MilestoneCompleted, TargetDate: datePtr(model.NewDate(2026, time.January, 5))},
		{ID: 101, ProjectID: 10, Status: model.MilestoneCompleted, TargetDate: datePtr(model.NewDate(2026, time.January, 10))},
		{ID: 102, ProjectID: 10, Status: model.MilestoneInProgress, TargetDate: datePtr(model.NewDate(2026, time.January, 14))},
		{ID: 103, ProjectID: 10, Status: model.MilestonePending, TargetDate: datePtr(model.NewDate(2026, time.February, 20))},
	}

	summary := ComputeSummary(clients, projects, milestones, today)
	require.Len(t, summary.Clients, 1)

	cp := summary.Clients[0]
	assert.Equal(t, 4, cp.Total)
	assert.Equal(t, 2, cp.Completed)
	// 2 of 4 done, 3 of 4 should have been done by today.
	assert.Equal(t, 50, cp.ActualPct)
	assert.Equal(t, 75, cp.TargetPct)
	assert.Equal(t, -25, cp.Diff)
}

func TestComputeSummaryEmptyClient(t *testing.T) {
	today := model.NewDate(2026, time.January, 15)
	clients := []model.Client{{ID: 1, Name: "Idle"}}

	summary := ComputeSummary(clients, nil, nil, today)
	require.Len(t, summary.Clients, 1)
	cp := summary.Clients[0]
	assert.Zero(t, cp.Total)
	assert.Zero(t, cp.ActualPct)
	assert.Zero(t, cp.TargetPct)
	assert.Zero(t, cp.Diff)
}

func TestComputeSummaryOverdue(t *testing.T) {
	today := model.NewDate(2026, time.January, 15)

	projects := []model.Project{{ID: 10, ClientID: 1, Name: "Website"}}
	milestones := []model.Milestone{
		// Due yesterday: exactly one day overdue.
		{ID: 100, ProjectID: 10, Status: model.MilestoneInProgress, TargetDate: datePtr(model.NewDate(2026, time.January, 14))},
		{ID: 101, ProjectID: 10, Status: model.MilestonePending, TargetDate: datePtr(model.NewDate(2026, time.January, 2))},
		// Completed milestones never count as overdue.
		{ID: 102, ProjectID: 10, Status: model.MilestoneCompleted, TargetDate: datePtr(model.NewDate(2026, time.January, 1))},
		// Due today is not overdue.
		{ID: 103, ProjectID: 10, Status: model.MilestoneInProgress, TargetDate: datePtr(today)},
	}

	summary := ComputeSummary(nil, projects, milestones, today)
	require.Len(t, summary.Overdue, 1)
	group := summary.Overdue[0]
	assert.Equal(t, int64(10), group.ProjectID)
	require.Len(t, group.Milestones, 2)

	// Longest overdue leads.
	assert.Equal(t, int64(101), group.Milestones[0].Milestone.ID)
	assert.Equal(t, 13, group.Milestones[0].DaysOverdue)
	assert.Equal(t, int64(100), group.Milestones[1].Milestone.ID)
	assert.Equal(t, 1, group.Milestones[1].DaysOverdue)
}

func TestComputeSummaryUpcoming(t *testing.T) {
	today := model.NewDate(2026, time.January, 15)

	projects := []model.Project{
		{ID: 10, ClientID: 1, Name: "Website"},
		{ID: 20, ClientID: 1, Name: "App"},
	}
	milestones := []model.Milestone{
		// Two milestones share the project's earliest upcoming date; a later
		// one inside the window is left out of the cluster.
		{ID: 100, ProjectID: 10, Status: model.MilestoneInProgress, TargetDate: datePtr(model.NewDate(2026, time.January, 17))},
		{ID: 101, ProjectID: 10, Status: model.MilestonePending, TargetDate: datePtr(model.NewDate(2026, time.January, 17))},
		{ID: 102, ProjectID: 10, Status: model.MilestonePending, TargetDate: datePtr(model.NewDate(2026, time.January, 20))},
		// Outside the seven-day horizon.
		{ID: 200, ProjectID: 20, Status: model.MilestonePending, TargetDate: datePtr(model.NewDate(2026, time.January, 23))},
	}

	summary := ComputeSummary(nil, projects, milestones, today)
	require.Len(t, summary.Upcoming, 1)

	group := summary.Upcoming[0]
	assert.Equal(t, int64(10), group.ProjectID)
	assert.Equal(t, model.NewDate(2026, time.January, 17), group.TargetDate)
	assert.Equal(t, 2, group.DaysUntil)
	require.Len(t, group.Milestones, 2)
	assert.Equal(t, int64(100), group.Milestones[0].ID)
	assert.Equal(t, int64(101), group.Milestones[1].ID)
}

func TestComputeSummaryUpcomingIncludesHorizonEdge(t *testing.T) {
	today := model.NewDate(2026, time.January, 15)
	projects := []model.Project{{ID: 10, ClientID: 1, Name: "Website"}}
	milestones := []model.Milestone{
		{ID: 100, ProjectID: 10, Status: model.MilestonePending, TargetDate: datePtr(today.AddDays(7))},
	}

	summary := ComputeSummary(nil, projects, milestones, today)
	require.Len(t, summary.Upcoming, 1)
	assert.Equal(t, 7, summary.Upcoming[0].DaysUntil)
}

func TestRoundPct(t *testing.T) {
	assert.Equal(t, 50, roundPct(1, 2))
	assert.Equal(t, 33, roundPct(1, 3))
	assert.Equal(t, 67, roundPct(2, 3))
	assert.Equal(t, 100, roundPct(3, 3))
	assert.Equal(t, 0, roundPct(0, 5))
}
