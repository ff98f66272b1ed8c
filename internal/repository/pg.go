package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same repository code serves pooled and transactional calls.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool   *pgxpool.Pool // nil when the store is bound to a transaction
	logger *zap.Logger

	clients    *ClientRepository
	projects   *ProjectRepository
	milestones *MilestoneRepository
	schedules  *ScheduleRepository
	tasks      *TaskRepository
	memos      *MemoRepository
}

func NewPgStore(pool *pgxpool.Pool, logger *zap.Logger) *PgStore {
	s := newPgStore(pool, logger)
	s.pool = pool
	return s
}

func newPgStore(q Querier, logger *zap.Logger) *PgStore {
	return &PgStore{
		logger:     logger,
		clients:    NewClientRepository(q, logger),
		projects:   NewProjectRepository(q, logger),
		milestones: NewMilestoneRepository(q, logger),
		schedules:  NewScheduleRepository(q, logger),
		tasks:      NewTaskRepository(q, logger),
		memos:      NewMemoRepository(q, logger),
	}
}

func (s *PgStore) Clients() ClientStore       { return s.clients }
func (s *PgStore) Projects() ProjectStore     { return s.projects }
func (s *PgStore) Milestones() MilestoneStore { return s.milestones }
func (s *PgStore) Schedules() ScheduleStore   { return s.schedules }
func (s *PgStore) Tasks() TaskStore           { return s.tasks }
func (s *PgStore) Memos() MemoStore           { return s.memos }

// WithinTx runs fn against a transaction-bound store. Nested calls reuse the
// surrounding transaction.
func (s *PgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := newPgStore(tx, s.logger)
	if err := fn(txStore); err != nil {
		return rollback(ctx, tx, err)
	}
	return tx.Commit(ctx)
}

func rollback(ctx context.Context, tx pgx.Tx, err error) error {
	if rerr := tx.Rollback(ctx); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}
