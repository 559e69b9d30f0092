package transactions

import (
	"context"
	"database/sql"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"sync"

	"go.uber.org/zap"
)

type txContextKey struct{}

// Executor is the subset of *sql.DB and *sql.Tx the repositories run queries on.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ExecutorFromContext returns the transaction carried by ctx, or db when there is none.
func ExecutorFromContext(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return ok
}

type postgresTransactor struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	postgresTransactorInstance contracts.Transactor
	oncePostgresTransactor     sync.Once
)

func NewPostgresTransactor(db *sql.DB, logger *zap.Logger) contracts.Transactor {
	oncePostgresTransactor.Do(func() {
		postgresTransactorInstance = &postgresTransactor{
			DB:  db,
			Log: logger,
		}
	})
	return postgresTransactorInstance
}

func (t *postgresTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	tx, err := t.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		t.Log.Error("postgresTransactor.WithinTransaction error beginning transaction",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresDBBeginTransaction(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			t.Log.Error("postgresTransactor.WithinTransaction error rolling back",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(rbErr),
			)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		t.Log.Error("postgresTransactor.WithinTransaction error committing",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresDBCommit(err)
	}
	return nil
}
