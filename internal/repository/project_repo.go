package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type ProjectRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewProjectRepository(db Querier, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `id, client_id, name, description, status, order_index, created_at, updated_at`

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int64, error) {
	query := `
        INSERT INTO projects (client_id, name, description, status, order_index)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query,
		p.ClientID, p.Name, p.Description, p.Status, p.OrderIndex,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert project",
			zap.Error(err),
			zap.Int64("client_id", p.ClientID),
			zap.String("name", p.Name),
		)
		return 0, err
	}
	r.logger.Info("Project inserted", zap.Int64("project_id", id), zap.Int64("client_id", p.ClientID))
	return id, nil
}

func (r *ProjectRepository) scanRow(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.Status, &p.OrderIndex, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := r.scanRow(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("project %d", id)
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.Error(err), zap.Int64("project_id", id))
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY order_index ASC, id ASC`)
}

func (r *ProjectRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Project, error) {
	return r.list(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE client_id = $1 ORDER BY order_index ASC, id ASC`,
		clientID,
	)
}

func (r *ProjectRepository) list(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.Status, &p.OrderIndex, &p.CreatedAt, &p.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET name = $2, description = $3, status = $4, order_index = $5, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, p.ID, p.Name, p.Description, p.Status, p.OrderIndex)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Error(err), zap.Int64("project_id", p.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("project %d", p.ID)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	// Milestones cascade with the project.
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Error(err), zap.Int64("project_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("project %d", id)
	}
	r.logger.Info("Project deleted", zap.Int64("project_id", id))
	return nil
}
