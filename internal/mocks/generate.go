// Package mocks provides mock implementations of the core repository interfaces.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockComplaintRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), "c1").Return(complaint, nil)
package mocks

// Generate mock for UserRepository interface from internal/core package.
// Methods: Create, GetByID, GetByEmail, List, ListOfficers, Update, SetPassword, Delete, RoleOf
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/acadly/complaintdesk/internal/core UserRepository

// Generate mock for DepartmentRepository interface from internal/core package.
// Methods: Create, GetByID, GetByCode, List, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=department_repository_mock.go github.com/acadly/complaintdesk/internal/core DepartmentRepository

// Generate mock for ComplaintRepository interface from internal/core package.
// Methods: Create, GetByID, List, UpdateStatus, Assign, AddResponse, ListResponses
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=complaint_repository_mock.go github.com/acadly/complaintdesk/internal/core ComplaintRepository

// Generate mock for AttachmentRepository interface from internal/core package.
// Methods: Create, ListByComplaint, Get
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=attachment_repository_mock.go github.com/acadly/complaintdesk/internal/core AttachmentRepository

// Generate mock for NotificationRepository interface from internal/core package.
// Methods: Create, List, CountUnread, MarkRead, MarkAllRead, DeleteOld
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=notification_repository_mock.go github.com/acadly/complaintdesk/internal/core NotificationRepository

// Generate mock for AnalyticsRepository interface from internal/core package.
// Methods: CountByStatus, CountByCategory, CountByDepartment, AvgResolutionHours, CountCreatedSince
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=analytics_repository_mock.go github.com/acadly/complaintdesk/internal/core AnalyticsRepository

// Generate mock for CacheRepository interface from internal/core package.
// Methods: Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/acadly/complaintdesk/internal/core CacheRepository
