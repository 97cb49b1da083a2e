package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// NotificationServiceOptions groups dependencies for NotificationService.
type NotificationServiceOptions struct {
	Repo   core.NotificationRepository
	Logger *slog.Logger
}

// NotificationService stores and reads in-app notifications.
type NotificationService struct {
	repo   core.NotificationRepository
	logger *slog.Logger
}

// NewNotificationService constructs a new NotificationService.
func NewNotificationService(opts NotificationServiceOptions) *NotificationService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{repo: opts.Repo, logger: logger.With("component", "notification_service")}
}

// Notify records one notification per recipient. Failures are logged and
// never returned; notifying is a side effect of the operation that caused it.
func (s *NotificationService) Notify(
	ctx context.Context,
	kind model.NotificationKind,
	complaintID, message string,
	recipients ...string,
) {
	if s == nil || s.repo == nil {
		return
	}
	var cid *string
	if complaintID != "" {
		cid = &complaintID
	}
	seen := make(map[string]struct{}, len(recipients))
	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		_, err := s.repo.Create(ctx, &model.CreateNotificationRequest{
			UserID:      userID,
			ComplaintID: cid,
			Kind:        kind,
			Message:     message,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "notification not stored",
				"kind", kind,
				"user_id", userID,
				"complaint_id", complaintID,
				"error", err,
			)
		}
	}
}

// NotificationPage is one page of a user's notifications plus the unread total.
type NotificationPage struct {
	Items  []*model.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, opts model.NotificationListOptions) (*NotificationPage, error) {
	if opts.UserID == "" {
		return nil, errors.New("user ID is required")
	}
	items, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, opts.UserID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Notification{}
	}
	return &NotificationPage{Items: items, Unread: unread}, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
