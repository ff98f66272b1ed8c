package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type ClientRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewClientRepository(db Querier, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

func (r *ClientRepository) Insert(ctx context.Context, c *model.Client) (int64, error) {
	query := `
        INSERT INTO clients (name, color, icon, order_index)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, c.Name, c.Color, c.Icon, c.OrderIndex).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert client", zap.Error(err), zap.String("name", c.Name))
		return 0, err
	}
	r.logger.Info("Client inserted", zap.Int64("client_id", id), zap.String("name", c.Name))
	return id, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	query := `
        SELECT id, name, color, icon, order_index, created_at, updated_at
        FROM clients
        WHERE id = $1
    `
	var c model.Client
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Color, &c.Icon, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("client %d", id)
	}
	if err != nil {
		r.logger.Error("Failed to get client", zap.Error(err), zap.Int64("client_id", id))
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]model.Client, error) {
	query := `
        SELECT id, name, color, icon, order_index, created_at, updated_at
        FROM clients
        ORDER BY order_index ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query clients", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan client row", zap.Error(err))
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) Update(ctx context.Context, c *model.Client) error {
	query := `
        UPDATE clients
        SET name = $2, color = $3, icon = $4, order_index = $5, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Color, c.Icon, c.OrderIndex)
	if err != nil {
		r.logger.Error("Failed to update client", zap.Error(err), zap.Int64("client_id", c.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("client %d", c.ID)
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	// Projects and their milestones go with the client (FK cascade);
	// schedules keep their rows with client_id cleared.
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete client", zap.Error(err), zap.Int64("client_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("client %d", id)
	}
	r.logger.Info("Client deleted", zap.Int64("client_id", id))
	return nil
}
