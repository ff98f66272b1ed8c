package service

import (
	"context"
	"time"

	"worktracker/internal/model"
	"worktracker/internal/repository"
)

// fakeStore is an in-memory repository.Store for facade tests. Reads hand
// out copies, so state only changes through Update, and the versioned
// stores enforce the same conflict rules as the SQL ones.
type fakeStore struct {
	clients    map[int64]*model.Client
	projects   map[int64]*model.Project
	milestones map[int64]*model.Milestone
	schedules  map[int64]*model.Schedule
	tasks      map[int64]*model.Task
	memos      map[model.Date]*model.DailyMemo
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:    make(map[int64]*model.Client),
		projects:   make(map[int64]*model.Project),
		milestones: make(map[int64]*model.Milestone),
		schedules:  make(map[int64]*model.Schedule),
		tasks:      make(map[int64]*model.Task),
		memos:      make(map[model.Date]*model.DailyMemo),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Clients() repository.ClientStore       { return (*fakeClients)(f) }
func (f *fakeStore) Projects() repository.ProjectStore     { return (*fakeProjects)(f) }
func (f *fakeStore) Milestones() repository.MilestoneStore { return (*fakeMilestones)(f) }
func (f *fakeStore) Schedules() repository.ScheduleStore   { return (*fakeSchedules)(f) }
func (f *fakeStore) Tasks() repository.TaskStore           { return (*fakeTasks)(f) }
func (f *fakeStore) Memos() repository.MemoStore           { return (*fakeMemos)(f) }

func (f *fakeStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

// addMilestone seeds a milestone directly, bypassing the store contract.
func (f *fakeStore) addMilestone(m model.Milestone) *model.Milestone {
	if m.ID == 0 {
		m.ID = f.id()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	f.milestones[m.ID] = &m
	return &m
}

func (f *fakeStore) addSchedule(s model.Schedule) *model.Schedule {
	if s.ID == 0 {
		s.ID = f.id()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.CompletedDates == nil {
		s.CompletedDates = []model.Date{}
	}
	f.schedules[s.ID] = &s
	return &s
}

type fakeClients fakeStore

func (f *fakeClients) Insert(_ context.Context, c *model.Client) (int64, error) {
	cp := *c
	cp.ID = (*fakeStore)(f).id()
	f.clients[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeClients) GetByID(_ context.Context, id int64) (*model.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, model.NotFoundf("client %d not found", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClients) List(_ context.Context) ([]model.Client, error) {
	out := make([]model.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClients) Update(_ context.Context, c *model.Client) error {
	if _, ok := f.clients[c.ID]; !ok {
		return model.NotFoundf("client %d not found", c.ID)
	}
	cp := *c
	f.clients[c.ID] = &cp
	return nil
}

func (f *fakeClients) Delete(_ context.Context, id int64) error {
	if _, ok := f.clients[id]; !ok {
		return model.NotFoundf("client %d not found", id)
	}
	delete(f.clients, id)
	return nil
}

type fakeProjects fakeStore

func (f *fakeProjects) Insert(_ context.Context, p *model.Project) (int64, error) {
	cp := *p
	cp.ID = (*fakeStore)(f).id()
	f.projects[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeProjects) GetByID(_ context.Context, id int64) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, model.NotFoundf("project %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) List(_ context.Context) ([]model.Project, error) {
	out := make([]model.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProjects) ListByClient(_ context.Context, clientID int64) ([]model.Project, error) {
	var out []model.Project
	for _, p := range f.projects {
		if p.ClientID == clientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, p *model.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return model.NotFoundf("project %d not found", p.ID)
	}
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return model.NotFoundf("project %d not found", id)
	}
	delete(f.projects, id)
	return nil
}

type fakeMilestones fakeStore

func (f *fakeMilestones) Insert(_ context.Context, m *model.Milestone) (int64, error) {
	cp := *m
	cp.ID = (*fakeStore)(f).id()
	cp.Version = 1
	f.milestones[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeMilestones) GetByID(_ context.Context, id int64) (*model.Milestone, error) {
	m, ok := f.milestones[id]
	if !ok {
		return nil, model.NotFoundf("milestone %d not found", id)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMilestones) List(_ context.Context) ([]model.Milestone, error) {
	out := make([]model.Milestone, 0, len(f.milestones))
	for _, m := range f.milestones {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMilestones) ListByProject(_ context.Context, projectID int64) ([]model.Milestone, error) {
	var out []model.Milestone
	for _, m := range f.milestones {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMilestones) Update(_ context.Context, m *model.Milestone) error {
	cur, ok := f.milestones[m.ID]
	if !ok {
		return model.NotFoundf("milestone %d not found", m.ID)
	}
	if cur.Version != m.Version {
		return model.Conflictf("milestone %d was modified concurrently", m.ID)
	}
	cp := *m
	cp.Version++
	f.milestones[m.ID] = &cp
	m.Version = cp.Version
	return nil
}

func (f *fakeMilestones) Delete(_ context.Context, id int64) error {
	if _, ok := f.milestones[id]; !ok {
		return model.NotFoundf("milestone %d not found", id)
	}
	delete(f.milestones, id)
	return nil
}

type fakeSchedules fakeStore

func copySchedule(s *model.Schedule) *model.Schedule {
	cp := *s
	cp.MilestoneIDs = append([]int64(nil), s.MilestoneIDs...)
	cp.CompletedDates = append([]model.Date{}, s.CompletedDates...)
	return &cp
}

func (f *fakeSchedules) Insert(_ context.Context, s *model.Schedule) (int64, error) {
	cp := copySchedule(s)
	cp.ID = (*fakeStore)(f).id()
	cp.Version = 1
	f.schedules[cp.ID] = cp
	return cp.ID, nil
}

func (f *fakeSchedules) GetByID(_ context.Context, id int64) (*model.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, model.NotFoundf("schedule %d not found", id)
	}
	return copySchedule(s), nil
}

func (f *fakeSchedules) ListOverlapping(_ context.Context, start, end model.Date, clientID *int64) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, s := range f.schedules {
		last := s.ScheduleDate
		if s.EndDate != nil {
			last = *s.EndDate
		}
		if s.ScheduleDate.After(end) || last.Before(start) {
			continue
		}
		if clientID != nil && (s.ClientID == nil || *s.ClientID != *clientID) {
			continue
		}
		out = append(out, *copySchedule(s))
	}
	return out, nil
}

func (f *fakeSchedules) Update(_ context.Context, s *model.Schedule) error {
	cur, ok := f.schedules[s.ID]
	if !ok {
		return model.NotFoundf("schedule %d not found", s.ID)
	}
	if cur.Version != s.Version {
		return model.Conflictf("schedule %d was modified concurrently", s.ID)
	}
	cp := copySchedule(s)
	cp.Version++
	f.schedules[s.ID] = cp
	s.Version = cp.Version
	return nil
}

func (f *fakeSchedules) Delete(_ context.Context, id int64) error {
	if _, ok := f.schedules[id]; !ok {
		return model.NotFoundf("schedule %d not found", id)
	}
	delete(f.schedules, id)
	for tid, t := range f.tasks {
		if t.ScheduleID == id {
			delete(f.tasks, tid)
		}
	}
	return nil
}

func (f *fakeSchedules) ListLegacyDueBetween(_ context.Context, start, end model.Date) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, s := range f.schedules {
		if s.LegacyTaskDeadline == nil {
			continue
		}
		if s.LegacyTaskDeadline.Before(start) || s.LegacyTaskDeadline.After(end) {
			continue
		}
		hasRows := false
		for _, t := range f.tasks {
			if t.ScheduleID == s.ID {
				hasRows = true
				break
			}
		}
		if !hasRows {
			out = append(out, *copySchedule(s))
		}
	}
	return out, nil
}

func (f *fakeSchedules) ExistsForMilestone(_ context.Context, milestoneID int64) (bool, error) {
	for _, s := range f.schedules {
		for _, id := range s.MilestoneIDs {
			if id == milestoneID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeTasks fakeStore

func (f *fakeTasks) Insert(_ context.Context, t *model.Task) (int64, error) {
	cp := *t
	cp.ID = (*fakeStore)(f).id()
	f.tasks[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeTasks) GetByID(_ context.Context, id int64) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, model.NotFoundf("task %d not found", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) ListBySchedule(_ context.Context, scheduleID int64) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.ScheduleID == scheduleID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTasks) ListDueBetween(_ context.Context, start, end model.Date) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.Deadline == nil || t.Deadline.Before(start) || t.Deadline.After(end) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTasks) Update(_ context.Context, t *model.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return model.NotFoundf("task %d not found", t.ID)
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return model.NotFoundf("task %d not found", id)
	}
	delete(f.tasks, id)
	return nil
}

type fakeMemos fakeStore

func (f *fakeMemos) Get(_ context.Context, date model.Date) (*model.DailyMemo, error) {
	m, ok := f.memos[date]
	if !ok {
		return nil, model.NotFoundf("memo for %s not found", date)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemos) ListBetween(_ context.Context, start, end model.Date) ([]model.DailyMemo, error) {
	var out []model.DailyMemo
	for _, m := range f.memos {
		if m.MemoDate.Before(start) || m.MemoDate.After(end) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMemos) Upsert(_ context.Context, memo *model.DailyMemo) error {
	cp := *memo
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	f.memos[cp.MemoDate] = &cp
	return nil
}

func (f *fakeMemos) Delete(_ context.Context, date model.Date) error {
	if _, ok := f.memos[date]; !ok {
		return model.NotFoundf("memo for %s not found", date)
	}
	delete(f.memos, date)
	return nil
}
