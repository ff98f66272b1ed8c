package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type TaskRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewTaskRepository(db Querier, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, schedule_id, content, deadline, is_completed, completed_at, order_index, created_at, updated_at`

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int64, error) {
	query := `
        INSERT INTO tasks (schedule_id, content, deadline, order_index)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query,
		t.ScheduleID, t.Content, fromDatePtr(t.Deadline), t.OrderIndex,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int64("schedule_id", t.ScheduleID),
		)
		return 0, err
	}
	r.logger.Info("Task inserted", zap.Int64("task_id", id), zap.Int64("schedule_id", t.ScheduleID))
	return id, nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t        model.Task
		deadline *model.Date
	)
	err := row.Scan(
		&t.ID, &t.ScheduleID, &t.Content, &deadline,
		&t.IsCompleted, &t.CompletedAt, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Deadline = deadline
	return &t, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("task %d", id)
	}
	if err != nil {
		r.logger.Error("Failed to get task", zap.Error(err), zap.Int64("task_id", id))
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE schedule_id = $1 ORDER BY order_index ASC, id ASC`,
		scheduleID,
	)
}

func (r *TaskRepository) ListDueBetween(ctx context.Context, start, end model.Date) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE deadline >= $1 AND deadline <= $2 ORDER BY deadline ASC, order_index ASC, id ASC`,
		start, end,
	)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET content = $2, deadline = $3, is_completed = $4, completed_at = $5,
            order_index = $6, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		t.ID, t.Content, fromDatePtr(t.Deadline), t.IsCompleted, t.CompletedAt, t.OrderIndex,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err), zap.Int64("task_id", t.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("task %d", t.ID)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Error(err), zap.Int64("task_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("task %d", id)
	}
	r.logger.Info("Task deleted", zap.Int64("task_id", id))
	return nil
}
