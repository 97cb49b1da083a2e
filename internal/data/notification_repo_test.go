package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/testutil"
)

func TestNotificationRepo_Lifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewNotificationRepo(db)
		userID := testutil.InsertUser(t, db, domainauth.RoleStudent, "")
		otherID := testutil.InsertUser(t, db, domainauth.RoleStudent, "")

		first, err := repo.Create(ctx, &model.CreateNotificationRequest{
			UserID: userID, Kind: model.NotificationStatusChanged, Message: "Your complaint is in review",
		})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &model.CreateNotificationRequest{
			UserID: userID, Kind: model.NotificationResponseAdded, Message: "New response",
		})
		require.NoError(t, err)

		n, err := repo.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, repo.MarkRead(ctx, userID, first.ID))
		require.ErrorIs(t, repo.MarkRead(ctx, otherID, first.ID), ErrNotificationNotFound)

		unread, err := repo.List(ctx, model.NotificationListOptions{UserID: userID, UnreadOnly: true})
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, model.NotificationResponseAdded, unread[0].Kind)

		changed, err := repo.MarkAllRead(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, changed)

		all, err := repo.List(ctx, model.NotificationListOptions{UserID: userID})
		require.NoError(t, err)
		require.Len(t, all, 2)
		for _, item := range all {
			assert.NotNil(t, item.ReadAt)
		}

		none, err := repo.List(ctx, model.NotificationListOptions{UserID: otherID})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
