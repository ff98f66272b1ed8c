// Package repository defines the persistence contract the engine runs
// against, plus its PostgreSQL implementation. Services depend only on the
// interfaces here; no operation above this package assumes a storage engine.
package repository

import (
	"context"

	"worktracker/internal/model"
)

type ClientStore interface {
	Insert(ctx context.Context, c *model.Client) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	// Delete removes the client and cascades to its projects and their
	// milestones.
	Delete(ctx context.Context, id int64) error
}

type ProjectStore interface {
	Insert(ctx context.Context, p *model.Project) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	ListByClient(ctx context.Context, clientID int64) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	// Delete removes the project and cascades to its milestones.
	Delete(ctx context.Context, id int64) error
}

type MilestoneStore interface {
	Insert(ctx context.Context, m *model.Milestone) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Milestone, error)
	List(ctx context.Context) ([]model.Milestone, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Milestone, error)
	// Update writes the full row conditionally on m.Version and bumps the
	// version. Returns model.ErrConflict when the version check fails and
	// model.ErrNotFound when the row does not exist.
	Update(ctx context.Context, m *model.Milestone) error
	Delete(ctx context.Context, id int64) error
}

type ScheduleStore interface {
	Insert(ctx context.Context, s *model.Schedule) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Schedule, error)
	// ListOverlapping returns schedules whose day span intersects
	// [start, end], optionally restricted to one client, ordered by id.
	ListOverlapping(ctx context.Context, start, end model.Date, clientID *int64) ([]model.Schedule, error)
	// Update behaves like MilestoneStore.Update with respect to versioning
	// and replaces the milestone links with s.MilestoneIDs.
	Update(ctx context.Context, s *model.Schedule) error
	// Delete removes the schedule and cascades to its tasks.
	Delete(ctx context.Context, id int64) error
	// ListLegacyDueBetween returns schedules with no task rows whose
	// legacy task deadline falls inside [start, end].
	ListLegacyDueBetween(ctx context.Context, start, end model.Date) ([]model.Schedule, error)
	// ExistsForMilestone reports whether any schedule references the
	// milestone. Drives the lifecycle's has_schedules branch.
	ExistsForMilestone(ctx context.Context, milestoneID int64) (bool, error)
}

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	ListBySchedule(ctx context.Context, scheduleID int64) ([]model.Task, error)
	// ListDueBetween returns tasks whose own deadline falls inside
	// [start, end], regardless of the parent schedule's placement.
	ListDueBetween(ctx context.Context, start, end model.Date) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id int64) error
}

type MemoStore interface {
	// Get returns model.ErrNotFound when no memo exists for the date.
	Get(ctx context.Context, date model.Date) (*model.DailyMemo, error)
	ListBetween(ctx context.Context, start, end model.Date) ([]model.DailyMemo, error)
	Upsert(ctx context.Context, memo *model.DailyMemo) error
	Delete(ctx context.Context, date model.Date) error
}

// Store bundles the entity stores and the transaction boundary. WithinTx
// runs fn against a store whose writes commit or roll back together; the
// facade uses it wherever a side effect must not be observable halfway.
type Store interface {
	Clients() ClientStore
	Projects() ProjectStore
	Milestones() MilestoneStore
	Schedules() ScheduleStore
	Tasks() TaskStore
	Memos() MemoStore
	WithinTx(ctx context.Context, fn func(Store) error) error
}
