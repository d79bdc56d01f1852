package core

import (
	"context"
	"database/sql"
)

// DBExecutor is the subset of *sqlx.DB / *sqlx.Tx the repositories run on,
// so service-level transactions can be passed down to any repository call.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// TxRunner runs fn atomically; the exec it passes must be handed down to every
// repository call made inside fn. Implementations roll back when fn errors.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec DBExecutor) error) error
}

// DBOrdering is a single ORDER BY term.
type DBOrdering struct {
	Field string
	Desc  bool
}

func (o DBOrdering) String() string {
	if o.Desc {
		return o.Field + " DESC"
	}
	return o.Field
}
