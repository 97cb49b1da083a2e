// Package core defines the repository ports the service layer depends on.
package core

import (
	"context"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository defines the interface for user directory operations.
type UserRepository interface {
	Create(ctx context.Context, req *model.CreateUserRequest, passwordHash *string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error)
	ListOfficers(ctx context.Context, departmentID string) ([]*model.User, error)
	Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) (bool, error)
	RoleOf(ctx context.Context, userID string) (domainauth.Role, error)
}

// DepartmentRepository defines the interface for department data operations.
type DepartmentRepository interface {
	Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error)
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByCode(ctx context.Context, code string) (*model.Department, error)
	List(ctx context.Context, limit, offset int) ([]*model.Department, error)
	Update(ctx context.Context, id string, req model.UpdateDepartmentRequest) (*model.Department, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ComplaintRepository defines the interface for complaint data operations.
type ComplaintRepository interface {
	Create(ctx context.Context, req *model.CreateComplaintRequest) (*model.Complaint, error)
	GetByID(ctx context.Context, id string) (*model.Complaint, error)
	List(ctx context.Context, opts model.ComplaintListOptions) ([]*model.Complaint, error)
	UpdateStatus(ctx context.Context, change model.ComplaintStatusChange) (*model.Complaint, error)
	Assign(ctx context.Context, id, officerID string) (*model.Complaint, error)
	AddResponse(ctx context.Context, req *model.CreateResponseRequest) (*model.ComplaintResponse, error)
	ListResponses(ctx context.Context, complaintID string) ([]model.ComplaintResponse, error)
}

// AttachmentRepository defines the interface for complaint attachment storage.
type AttachmentRepository interface {
	Create(ctx context.Context, req *model.CreateAttachmentRequest) (*model.Attachment, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]model.Attachment, error)
	Get(ctx context.Context, complaintID, id string) (*model.Attachment, error)
}

// NotificationRepository defines the interface for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.Notification, error)
	List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteOld(ctx context.Context, params DeleteOldNotificationsParams) (int64, error)
}

// NotificationReaperRepository is the retention slice of NotificationRepository.
type NotificationReaperRepository interface {
	DeleteOld(ctx context.Context, params DeleteOldNotificationsParams) (int64, error)
}

// DeleteOldNotificationsParams selects one batch of notifications for retention cleanup.
type DeleteOldNotificationsParams struct {
	Before    time.Time
	Read      bool
	BatchSize int
}

// AnalyticsRepository defines the aggregate queries behind analytics.
type AnalyticsRepository interface {
	CountByStatus(ctx context.Context, scope model.AnalyticsScope) (map[model.ComplaintStatus]int, error)
	CountByCategory(ctx context.Context, scope model.AnalyticsScope) (map[model.ComplaintCategory]int, error)
	CountByDepartment(ctx context.Context, scope model.AnalyticsScope) ([]model.DepartmentCount, error)
	AvgResolutionHours(ctx context.Context, scope model.AnalyticsScope) (*float64, error)
	CountCreatedSince(ctx context.Context, scope model.AnalyticsScope) (int, error)
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL keeps the key forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil, nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) (bool, error)
	Health(ctx context.Context) error
}
