package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/uptrace/bun"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// BaseRepository provides common repository functionality
type BaseRepository struct {
	db             *bun.DB
	defaultTimeout time.Duration
}

func NewBaseRepository(db *bun.DB) *BaseRepository {
	return &BaseRepository{
		db:             db,
		defaultTimeout: config.DefaultQueryTimeout,
	}
}

// RepositoryError represents a repository-level error
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (re *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", re.Operation, re.Entity, re.Err)
}

func (re *RepositoryError) Unwrap() error {
	return re.Err
}

// NotFoundError represents an entity not found error. Member lookups unwrap
// to xp.ErrMemberNotFound.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", nfe.Entity, nfe.ID)
}

func (nfe *NotFoundError) Unwrap() error {
	if nfe.Entity == entityMember {
		return xp.ErrMemberNotFound
	}
	return nil
}

const (
	entityMember     = "member_xp"
	entityHistory    = "xp_history"
	entitySettings   = "guild_settings"
	entityMultiplier = "xp_multipliers"
	entityReward     = "level_rewards"
	entityReset      = "monthly_resets"
)

func (br *BaseRepository) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, br.defaultTimeout)
}

func (br *BaseRepository) WithCustomTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// HandleError standardizes error handling across repositories
func (br *BaseRepository) HandleError(operation, entity string, err error) error {
	return br.HandleErrorWithID(operation, entity, "unknown", err)
}

func (br *BaseRepository) HandleErrorWithID(operation, entity string, id interface{}, err error) error {
	return handleError(operation, entity, id, err)
}

func handleError(operation, entity string, id interface{}, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return &RepositoryError{
		Operation: operation,
		Entity:    entity,
		Err:       err,
	}
}

// Transaction runs fn in a transaction bounded by the batch timeout.
func (br *BaseRepository) Transaction(ctx context.Context, fn func(context.Context, bun.Tx) error) error {
	timeoutCtx, cancel := br.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	return br.db.RunInTx(timeoutCtx, nil, fn)
}

// ExecWithTimeout executes a query with timeout and error handling
func (br *BaseRepository) ExecWithTimeout(ctx context.Context, operation, entity string, query func(context.Context) (sql.Result, error)) (sql.Result, error) {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	result, err := query(timeoutCtx)
	return result, br.HandleError(operation, entity, err)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}

// requireAffected turns an update that touched nothing into a NotFoundError.
func requireAffected(result sql.Result, entity string, id interface{}) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
