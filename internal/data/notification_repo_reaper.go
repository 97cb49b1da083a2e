package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/data/pgxutil"
)

// Advisory lock keys for reaper operations: pg_try_advisory_xact_lock(major, minor).
const (
	advisoryLockReaperMajor        = 2000
	advisoryLockReaperDeleteRead   = 1
	advisoryLockReaperDeleteUnread = 2
)

// DeleteOld deletes up to params.BatchSize notifications created before
// params.Before, either read or unread ones depending on params.Read.
// A concurrent reaper holding the same advisory lock makes this a no-op.
func (r *NotificationRepo) DeleteOld(ctx context.Context, params core.DeleteOldNotificationsParams) (int64, error) {
	if params.BatchSize < 1 {
		return 0, fmt.Errorf("batch size must be positive, got %d", params.BatchSize)
	}

	minor := advisoryLockReaperDeleteUnread
	readCond := "read_at IS NULL"
	if params.Read {
		minor = advisoryLockReaperDeleteRead
		readCond = "read_at IS NOT NULL"
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, minor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			res, err := tx.ExecContext(ctx, `
				DELETE FROM notifications
				WHERE id IN (
					SELECT id FROM notifications
					WHERE `+readCond+` AND created_at < $1
					ORDER BY created_at
					LIMIT $2
				)`, params.Before.UTC(), params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old notifications: %w", err)
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
