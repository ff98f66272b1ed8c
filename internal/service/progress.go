package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/repository"
)

// ClientProgress compares how much of a client's milestone set is done
// against how much was supposed to be done by today.
type ClientProgress struct {
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name"`
	Color      string `json:"color"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	ActualPct  int    `json:"actual_pct"`
	TargetPct  int    `json:"target_pct"`
	// Diff is actual minus target: positive means ahead of plan.
	Diff int `json:"diff"`
}

type OverdueMilestone struct {
	Milestone   model.Milestone `json:"milestone"`
	DaysOverdue int             `json:"days_overdue"`
}

type OverdueGroup struct {
	ProjectID   int64              `json:"project_id"`
	ProjectName string             `json:"project_name"`
	Milestones  []OverdueMilestone `json:"milestones"`
}

// UpcomingGroup holds a project's soonest tier of upcoming milestones: only
// those sharing the project's earliest qualifying target date.
type UpcomingGroup struct {
	ProjectID   int64             `json:"project_id"`
	ProjectName string            `json:"project_name"`
	TargetDate  model.Date        `json:"target_date"`
	DaysUntil   int               `json:"days_until"`
	Milestones  []model.Milestone `json:"milestones"`
}

type ProgressSummary struct {
	Clients  []ClientProgress `json:"clients"`
	Overdue  []OverdueGroup   `json:"overdue"`
	Upcoming []UpcomingGroup  `json:"upcoming"`
}

// ComputeSummary is the pure aggregation over fetched rows.
func ComputeSummary(clients []model.Client, projects []model.Project, milestones []model.Milestone, today model.Date) *ProgressSummary {
	projectByID := make(map[int64]*model.Project, len(projects))
	milestonesByProject := make(map[int64][]model.Milestone, len(projects))
	for i := range projects {
		projectByID[projects[i].ID] = &projects[i]
	}
	for _, m := range milestones {
		milestonesByProject[m.ProjectID] = append(milestonesByProject[m.ProjectID], m)
	}

	summary := &ProgressSummary{
		Clients:  []ClientProgress{},
		Overdue:  []OverdueGroup{},
		Upcoming: []UpcomingGroup{},
	}

	for _, c := range clients {
		cp := ClientProgress{ClientID: c.ID, ClientName: c.Name, Color: c.Color}
		shouldBeDone := 0
		for _, p := range projects {
			if p.ClientID != c.ID {
				continue
			}
			for _, m := range milestonesByProject[p.ID] {
				cp.Total++
				if m.Status == model.MilestoneCompleted {
					cp.Completed++
				}
				if m.TargetDate != nil && !m.TargetDate.After(today) {
					shouldBeDone++
				}
			}
		}
		if cp.Total > 0 {
			cp.ActualPct = roundPct(cp.Completed, cp.Total)
			cp.TargetPct = roundPct(shouldBeDone, cp.Total)
		}
		cp.Diff = cp.ActualPct - cp.TargetPct
		summary.Clients = append(summary.Clients, cp)
	}

	horizon := today.AddDays(7)
	for _, p := range projects {
		var overdue []OverdueMilestone
		var earliest *model.Date
		for _, m := range milestonesByProject[p.ID] {
			if m.Status == model.MilestoneCompleted || m.TargetDate == nil {
				continue
			}
			if m.TargetDate.Before(today) {
				overdue = append(overdue, OverdueMilestone{
					Milestone:   m,
					DaysOverdue: m.TargetDate.DaysBetween(today),
				})
				continue
			}
			if !m.TargetDate.After(horizon) {
				if earliest == nil || m.TargetDate.Before(*earliest) {
					d := *m.TargetDate
					earliest = &d
				}
			}
		}

		if len(overdue) > 0 {
			sortOverdue(overdue)
			summary.Overdue = append(summary.Overdue, OverdueGroup{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				Milestones:  overdue,
			})
		}

		if earliest != nil {
			group := UpcomingGroup{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				TargetDate:  *earliest,
				DaysUntil:   today.DaysBetween(*earliest),
			}
			for _, m := range milestonesByProject[p.ID] {
				if m.Status == model.MilestoneCompleted || m.TargetDate == nil {
					continue
				}
				if m.TargetDate.Equal(*earliest) {
					group.Milestones = append(group.Milestones, m)
				}
			}
			summary.Upcoming = append(summary.Upcoming, group)
		}
	}

	return summary
}

func roundPct(part, total int) int {
	return int(math.Round(100 * float64(part) / float64(total)))
}

func sortOverdue(items []OverdueMilestone) {
	// Ascending by target date: the longest-overdue milestone leads.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Milestone.TargetDate.Before(*items[j-1].Milestone.TargetDate); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

const progressCacheKey = "progress:summary"

// ProgressService aggregates milestone progress, with a short-lived redis
// cache in front of the computation. Redis being down never fails a read.
type ProgressService struct {
	store    repository.Store
	rdb      *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewProgressService(store repository.Store, rdb *redis.Client, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		store:    store,
		rdb:      rdb,
		cacheTTL: 30 * time.Second,
		logger:   logger,
	}
}

func (s *ProgressService) Summary(ctx context.Context) (*ProgressSummary, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, progressCacheKey).Bytes()
		if err == nil {
			var summary ProgressSummary
			if err := json.Unmarshal(cached, &summary); err == nil {
				return &summary, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("Progress cache read failed, recomputing", zap.Error(err))
		}
	}

	clients, err := s.store.Clients().List(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.Projects().List(ctx)
	if err != nil {
		return nil, err
	}
	milestones, err := s.store.Milestones().List(ctx)
	if err != nil {
		return nil, err
	}

	summary := ComputeSummary(clients, projects, milestones, model.Today())

	if s.rdb != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.rdb.Set(ctx, progressCacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("Progress cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary; called after milestone writes.
func (s *ProgressService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, progressCacheKey).Err(); err != nil {
		s.logger.Warn("Progress cache invalidation failed", zap.Error(err))
	}
}
