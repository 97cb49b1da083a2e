package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/database"
	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// NotificationRepo provides database operations for in-app notifications.
type NotificationRepo struct {
	DB *sql.DB
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db}
}

const notificationColumnsSQL = `id, user_id, complaint_id, kind, message, read_at, created_at`

// Create inserts one notification.
func (r *NotificationRepo) Create(
	ctx context.Context,
	req *model.CreateNotificationRequest,
) (*model.Notification, error) {
	if req == nil {
		return nil, errors.New("create notification request is required")
	}

	var out model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO notifications (user_id, complaint_id, kind, message)
			VALUES ($1, $2, $3, $4)
			RETURNING `+notificationColumnsSQL,
			req.UserID, req.ComplaintID, req.Kind, req.Message,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Notification])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// List returns a user's notifications, newest first.
func (r *NotificationRepo) List(
	ctx context.Context,
	opts model.NotificationListOptions,
) ([]*model.Notification, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns("id", "user_id", "complaint_id", "kind", "message", "read_at", "created_at"),
		database.WithCondition(database.WhereCond("user_id", database.Equal, opts.UserID)),
		database.WithOrderBy("created_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.UnreadOnly {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereRawCond("read_at IS NULL")))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("notifications", queryOpts...))

	var rowsOut []model.Notification
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Notification])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return collectPtrs(rowsOut), nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as not found.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE notifications SET read_at = COALESCE(read_at, now())
			WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`, userID)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(affected), nil
}
