package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type ScheduleRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewScheduleRepository(db Querier, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger}
}

const scheduleColumns = `id, title, description, schedule_date, end_date, start_time, end_time,
	type, color, client_id, is_completed, completed_dates, email_reminder,
	task_content, task_deadline, task_completed, version, created_at, updated_at`

func (r *ScheduleRepository) Insert(ctx context.Context, s *model.Schedule) (int64, error) {
	completedDates, err := json.Marshal(s.CompletedDates)
	if err != nil {
		return 0, err
	}

	query := `
        INSERT INTO schedules (title, description, schedule_date, end_date, start_time, end_time,
            type, color, client_id, is_completed, completed_dates, email_reminder,
            task_content, task_deadline, task_completed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id
    `
	var id int64
	err = r.db.QueryRow(ctx, query,
		s.Title,
		s.Description,
		s.ScheduleDate,
		fromDatePtr(s.EndDate),
		s.StartTime,
		s.EndTime,
		s.Type,
		s.Color,
		s.ClientID,
		s.IsCompleted,
		completedDates,
		s.EmailReminder,
		s.LegacyTaskContent,
		fromDatePtr(s.LegacyTaskDeadline),
		s.LegacyTaskCompleted,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert schedule",
			zap.Error(err),
			zap.String("title", s.Title),
			zap.String("schedule_date", s.ScheduleDate.String()),
		)
		return 0, err
	}

	if err := r.replaceMilestoneLinks(ctx, id, s.MilestoneIDs); err != nil {
		return 0, err
	}

	r.logger.Info("Schedule inserted",
		zap.Int64("schedule_id", id),
		zap.String("type", s.Type),
		zap.Int("milestone_count", len(s.MilestoneIDs)),
	)
	return id, nil
}

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var (
		s              model.Schedule
		endDate        *model.Date
		taskDeadline   *model.Date
		completedDates []byte
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.ScheduleDate, &endDate, &s.StartTime, &s.EndTime,
		&s.Type, &s.Color, &s.ClientID, &s.IsCompleted, &completedDates, &s.EmailReminder,
		&s.LegacyTaskContent, &taskDeadline, &s.LegacyTaskCompleted, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.EndDate = endDate
	s.LegacyTaskDeadline = taskDeadline
	if len(completedDates) > 0 {
		if err := json.Unmarshal(completedDates, &s.CompletedDates); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("schedule %d", id)
	}
	if err != nil {
		r.logger.Error("Failed to get schedule", zap.Error(err), zap.Int64("schedule_id", id))
		return nil, err
	}

	links, err := r.loadMilestoneLinks(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	s.MilestoneIDs = links[id]
	return s, nil
}

// ListOverlapping fetches schedules whose [schedule_date, end_date] span
// intersects [start, end]. Single-day schedules intersect on schedule_date
// alone.
func (r *ScheduleRepository) ListOverlapping(ctx context.Context, start, end model.Date, clientID *int64) ([]model.Schedule, error) {
	query := `
        SELECT ` + scheduleColumns + `
        FROM schedules
        WHERE schedule_date <= $2 AND COALESCE(end_date, schedule_date) >= $1
    `
	args := []any{start, end}
	if clientID != nil {
		query += ` AND client_id = $3`
		args = append(args, *clientID)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query schedules",
			zap.Error(err),
			zap.String("start", start.String()),
			zap.String("end", end.String()),
		)
		return nil, err
	}
	defer rows.Close()

	schedules := []model.Schedule{}
	ids := []int64{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			r.logger.Error("Failed to scan schedule row", zap.Error(err))
			return nil, err
		}
		schedules = append(schedules, *s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := r.loadMilestoneLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].MilestoneIDs = links[schedules[i].ID]
	}
	return schedules, nil
}

// ListLegacyDueBetween finds schedules whose legacy single-task deadline is
// in range and that have no task rows (rows always win over legacy fields).
func (r *ScheduleRepository) ListLegacyDueBetween(ctx context.Context, start, end model.Date) ([]model.Schedule, error) {
	query := `
        SELECT ` + scheduleColumns + `
        FROM schedules s
        WHERE s.task_deadline >= $1 AND s.task_deadline <= $2
          AND NOT EXISTS (SELECT 1 FROM tasks t WHERE t.schedule_id = s.id)
        ORDER BY s.id ASC
    `
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		r.logger.Error("Failed to query legacy due schedules", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	schedules := []model.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			r.logger.Error("Failed to scan schedule row", zap.Error(err))
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) Update(ctx context.Context, s *model.Schedule) error {
	completedDates, err := json.Marshal(s.CompletedDates)
	if err != nil {
		return err
	}

	query := `
        UPDATE schedules
        SET title = $2, description = $3, schedule_date = $4, end_date = $5,
            start_time = $6, end_time = $7, type = $8, color = $9, client_id = $10,
            is_completed = $11, completed_dates = $12, email_reminder = $13,
            task_content = $14, task_deadline = $15, task_completed = $16,
            version = version + 1, updated_at = NOW()
        WHERE id = $1 AND version = $17
    `
	tag, err := r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.Description,
		s.ScheduleDate,
		fromDatePtr(s.EndDate),
		s.StartTime,
		s.EndTime,
		s.Type,
		s.Color,
		s.ClientID,
		s.IsCompleted,
		completedDates,
		s.EmailReminder,
		s.LegacyTaskContent,
		fromDatePtr(s.LegacyTaskDeadline),
		s.LegacyTaskCompleted,
		s.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update schedule", zap.Error(err), zap.Int64("schedule_id", s.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schedules WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return model.NotFoundf("schedule %d", s.ID)
		}
		return model.Conflictf("schedule %d modified concurrently", s.ID)
	}
	s.Version++

	return r.replaceMilestoneLinks(ctx, s.ID, s.MilestoneIDs)
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	// Task rows and milestone links cascade with the schedule.
	tag, err := r.db.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete schedule", zap.Error(err), zap.Int64("schedule_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("schedule %d", id)
	}
	r.logger.Info("Schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

func (r *ScheduleRepository) ExistsForMilestone(ctx context.Context, milestoneID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schedule_milestones WHERE milestone_id = $1)`,
		milestoneID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check milestone linkage", zap.Error(err), zap.Int64("milestone_id", milestoneID))
		return false, err
	}
	return exists, nil
}

func (r *ScheduleRepository) replaceMilestoneLinks(ctx context.Context, scheduleID int64, milestoneIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM schedule_milestones WHERE schedule_id = $1`, scheduleID); err != nil {
		r.logger.Error("Failed to clear milestone links", zap.Error(err), zap.Int64("schedule_id", scheduleID))
		return err
	}
	for pos, mid := range milestoneIDs {
		_, err := r.db.Exec(ctx,
			`INSERT INTO schedule_milestones (schedule_id, milestone_id, position) VALUES ($1, $2, $3)`,
			scheduleID, mid, pos,
		)
		if err != nil {
			r.logger.Error("Failed to insert milestone link",
				zap.Error(err),
				zap.Int64("schedule_id", scheduleID),
				zap.Int64("milestone_id", mid),
			)
			return err
		}
	}
	return nil
}

func (r *ScheduleRepository) loadMilestoneLinks(ctx context.Context, scheduleIDs []int64) (map[int64][]int64, error) {
	links := map[int64][]int64{}
	if len(scheduleIDs) == 0 {
		return links, nil
	}
	rows, err := r.db.Query(ctx, `
        SELECT schedule_id, milestone_id
        FROM schedule_milestones
        WHERE schedule_id = ANY($1)
        ORDER BY schedule_id ASC, position ASC
    `, scheduleIDs)
	if err != nil {
		r.logger.Error("Failed to query milestone links", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID, milestoneID int64
		if err := rows.Scan(&scheduleID, &milestoneID); err != nil {
			return nil, err
		}
		links[scheduleID] = append(links[scheduleID], milestoneID)
	}
	return links, rows.Err()
}
