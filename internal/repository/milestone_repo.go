package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type MilestoneRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewMilestoneRepository(db Querier, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{db: db, logger: logger}
}

const milestoneColumns = `id, project_id, name, description, status, target_date,
	completed_at, review_completed, order_index, version, created_at, updated_at`

func (r *MilestoneRepository) Insert(ctx context.Context, m *model.Milestone) (int64, error) {
	query := `
        INSERT INTO milestones (project_id, name, description, status, target_date, review_completed, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query,
		m.ProjectID,
		m.Name,
		m.Description,
		m.Status,
		fromDatePtr(m.TargetDate),
		m.ReviewCompleted,
		m.OrderIndex,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert milestone",
			zap.Error(err),
			zap.Int64("project_id", m.ProjectID),
			zap.String("name", m.Name),
		)
		return 0, err
	}
	r.logger.Info("Milestone inserted",
		zap.Int64("milestone_id", id),
		zap.Int64("project_id", m.ProjectID),
	)
	return id, nil
}

func scanMilestone(row pgx.Row) (*model.Milestone, error) {
	var (
		m          model.Milestone
		targetDate *model.Date
	)
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Status, &targetDate,
		&m.CompletedAt, &m.ReviewCompleted, &m.OrderIndex, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.TargetDate = targetDate
	return &m, nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id int64) (*model.Milestone, error) {
	m, err := scanMilestone(r.db.QueryRow(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("milestone %d", id)
	}
	if err != nil {
		r.logger.Error("Failed to get milestone", zap.Error(err), zap.Int64("milestone_id", id))
		return nil, err
	}
	return m, nil
}

func (r *MilestoneRepository) List(ctx context.Context) ([]model.Milestone, error) {
	return r.list(ctx, `SELECT `+milestoneColumns+` FROM milestones ORDER BY project_id ASC, order_index ASC, id ASC`)
}

func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Milestone, error) {
	return r.list(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = $1 ORDER BY order_index ASC, id ASC`,
		projectID,
	)
}

func (r *MilestoneRepository) list(ctx context.Context, query string, args ...any) ([]model.Milestone, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query milestones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			r.logger.Error("Failed to scan milestone row", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// Update writes the full row guarded by the version the caller read. A lost
// race surfaces as ErrConflict so two concurrent status toggles cannot both
// apply their next-state computation.
func (r *MilestoneRepository) Update(ctx context.Context, m *model.Milestone) error {
	query := `
        UPDATE milestones
        SET name = $2, description = $3, status = $4, target_date = $5,
            completed_at = $6, review_completed = $7, order_index = $8,
            version = version + 1, updated_at = NOW()
        WHERE id = $1 AND version = $9
    `
	tag, err := r.db.Exec(ctx, query,
		m.ID,
		m.Name,
		m.Description,
		m.Status,
		fromDatePtr(m.TargetDate),
		m.CompletedAt,
		m.ReviewCompleted,
		m.OrderIndex,
		m.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update milestone", zap.Error(err), zap.Int64("milestone_id", m.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM milestones WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return model.NotFoundf("milestone %d", m.ID)
		}
		return model.Conflictf("milestone %d modified concurrently", m.ID)
	}
	m.Version++
	return nil
}

func (r *MilestoneRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete milestone", zap.Error(err), zap.Int64("milestone_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("milestone %d", id)
	}
	r.logger.Info("Milestone deleted", zap.Int64("milestone_id", id))
	return nil
}
