package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"worktracker/internal/model"
)

type MemoRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewMemoRepository(db Querier, logger *zap.Logger) *MemoRepository {
	return &MemoRepository{db: db, logger: logger}
}

func (r *MemoRepository) Get(ctx context.Context, date model.Date) (*model.DailyMemo, error) {
	query := `
        SELECT memo_date, content, created_at, updated_at
        FROM daily_memos
        WHERE memo_date = $1
    `
	var m model.DailyMemo
	err := r.db.QueryRow(ctx, query, date).Scan(&m.MemoDate, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFoundf("memo for %s", date)
	}
	if err != nil {
		r.logger.Error("Failed to get memo", zap.Error(err), zap.String("memo_date", date.String()))
		return nil, err
	}
	return &m, nil
}

func (r *MemoRepository) ListBetween(ctx context.Context, start, end model.Date) ([]model.DailyMemo, error) {
	query := `
        SELECT memo_date, content, created_at, updated_at
        FROM daily_memos
        WHERE memo_date >= $1 AND memo_date <= $2
        ORDER BY memo_date ASC
    `
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		r.logger.Error("Failed to query memos", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	memos := []model.DailyMemo{}
	for rows.Next() {
		var m model.DailyMemo
		if err := rows.Scan(&m.MemoDate, &m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan memo row", zap.Error(err))
			return nil, err
		}
		memos = append(memos, m)
	}
	return memos, rows.Err()
}

func (r *MemoRepository) Upsert(ctx context.Context, memo *model.DailyMemo) error {
	query := `
        INSERT INTO daily_memos (memo_date, content)
        VALUES ($1, $2)
        ON CONFLICT (memo_date) DO UPDATE
        SET content = EXCLUDED.content, updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, memo.MemoDate, memo.Content); err != nil {
		r.logger.Error("Failed to upsert memo", zap.Error(err), zap.String("memo_date", memo.MemoDate.String()))
		return err
	}
	r.logger.Info("Memo upserted", zap.String("memo_date", memo.MemoDate.String()))
	return nil
}

func (r *MemoRepository) Delete(ctx context.Context, date model.Date) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM daily_memos WHERE memo_date = $1`, date)
	if err != nil {
		r.logger.Error("Failed to delete memo", zap.Error(err), zap.String("memo_date", date.String()))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.NotFoundf("memo for %s", date)
	}
	r.logger.Info("Memo deleted", zap.String("memo_date", date.String()))
	return nil
}
