// Package pgxutil bridges database/sql pools to native pgx connections.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var errNotPgx = errors.New("pgxutil: driver connection is not *stdlib.Conn")

// TxConfig describes a pgx transaction run by WithPgxTx.
type TxConfig struct {
	Opts *sql.TxOptions
	Fn   func(pgx.Tx) error
}

// SQLTxConfig describes a database/sql transaction run by WithSQLTx.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	Fn   func(*sql.Tx) error
}

// WithPgxConn pins one pooled connection and hands its underlying *pgx.Conn
// to fn. The connection returns to the pool when fn exits.
func WithPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errNotPgx
		}
		return fn(c.Conn())
	})
}

// WithPgxTx runs cfg.Fn inside a pgx transaction. The transaction commits only
// if Fn returns nil.
func WithPgxTx(ctx context.Context, db *sql.DB, cfg TxConfig) error {
	return WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		return pgx.BeginTxFunc(ctx, conn, txOptions(cfg.Opts), cfg.Fn)
	})
}

// WithSQLTx runs cfg.Fn inside a database/sql transaction. Rollback errors are
// joined onto the returned error.
func WithSQLTx(ctx context.Context, db *sql.DB, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func txOptions(opts *sql.TxOptions) pgx.TxOptions {
	var out pgx.TxOptions
	if opts == nil {
		return out
	}
	if opts.ReadOnly {
		out.AccessMode = pgx.ReadOnly
	}
	switch opts.Isolation {
	case sql.LevelSerializable, sql.LevelLinearizable:
		out.IsoLevel = pgx.Serializable
	case sql.LevelRepeatableRead, sql.LevelSnapshot:
		out.IsoLevel = pgx.RepeatableRead
	case sql.LevelReadCommitted, sql.LevelWriteCommitted:
		out.IsoLevel = pgx.ReadCommitted
	case sql.LevelReadUncommitted:
		out.IsoLevel = pgx.ReadUncommitted
	}
	return out
}
