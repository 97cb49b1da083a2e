package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acadly/complaintdesk/internal/adapters/password"
	"github.com/acadly/complaintdesk/internal/data"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/service"
)

// DefaultPassword is the password given to every seeded account.
const DefaultPassword = "complaintdesk-dev"

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB          *sql.DB
	users       *service.UserService
	departments *service.DepartmentService
	complaints  *service.ComplaintService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	userRepo := data.NewUserRepo(db)
	deptRepo := data.NewDepartmentRepo(db)

	return Services{
		DB: db,
		users: service.NewUserService(service.UserServiceOptions{
			Repo:   userRepo,
			Hasher: password.NewArgon2idHasher(),
		}),
		departments: service.NewDepartmentService(service.DepartmentServiceOptions{
			Repo:  deptRepo,
			Users: userRepo,
		}),
		complaints: service.NewComplaintService(service.ComplaintServiceOptions{
			Complaints:  data.NewComplaintRepo(db),
			Attachments: data.NewAttachmentRepo(db),
			Departments: deptRepo,
			Users:       userRepo,
			Notifier: service.NewNotificationService(service.NotificationServiceOptions{
				Repo: data.NewNotificationRepo(db),
			}),
			Analytics: service.NewAnalyticsService(service.AnalyticsServiceOptions{
				Repo: data.NewAnalyticsRepo(db),
			}),
		}),
	}
}

// Run executes the full development seeding workflow against the provided DB.
// It is idempotent: existing departments and users are left untouched, and
// sample complaints are only filed for a student with none.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := 0

	deptIDs, n := seedDepartments(ctx, svcs.departments, logger)
	failures += n

	users, n := seedUsers(ctx, svcs.users, deptIDs, logger)
	failures += n

	if student, ok := users["student@example.edu"]; ok {
		if err := seedComplaints(ctx, svcs.complaints, student, deptIDs, logger); err != nil {
			logger.ErrorContext(ctx, "failed to seed complaints", "error", err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func defaultDepartments() []model.CreateDepartmentRequest {
	return []model.CreateDepartmentRequest{
		{Code: "CS", Name: "Computer Science"},
		{Code: "MATH", Name: "Mathematics"},
		{Code: "REG", Name: "Registrar"},
	}
}

func seedDepartments(
	ctx context.Context,
	svc *service.DepartmentService,
	logger *slog.Logger,
) (map[string]string, int) {
	ids := make(map[string]string)
	failures := 0
	for _, req := range defaultDepartments() {
		dept, created, err := createDepartment(ctx, svc, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create department", "code", req.Code, "error", err)
			failures++
			continue
		}
		ids[dept.Code] = dept.ID
		msg := "department already exists"
		if created {
			msg = "created department"
		}
		logger.InfoContext(ctx, msg, "code", dept.Code)
	}
	return ids, failures
}

func createDepartment(
	ctx context.Context,
	svc *service.DepartmentService,
	req model.CreateDepartmentRequest,
) (*model.Department, bool, error) {
	existing, err := svc.GetByCode(ctx, req.Code)
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}
	dept, err := svc.Create(ctx, &req)
	if err != nil {
		return nil, false, err
	}
	return dept, true, nil
}

type userSeed struct {
	email    string
	name     string
	role     domainauth.Role
	deptCode string
	number   string
}

func defaultUsers() []userSeed {
	return []userSeed{
		{email: "admin@example.edu", name: "Dev Admin", role: domainauth.RoleAdmin},
		{email: "officer@example.edu", name: "Dev Officer", role: domainauth.RoleDepartmentOfficer, deptCode: "CS"},
		{email: "student@example.edu", name: "Dev Student", role: domainauth.RoleStudent, number: "S0000001"},
	}
}

func seedUsers(
	ctx context.Context,
	svc *service.UserService,
	deptIDs map[string]string,
	logger *slog.Logger,
) (map[string]*model.User, int) {
	users := make(map[string]*model.User)
	failures := 0
	for _, seed := range defaultUsers() {
		req, err := seed.request(deptIDs)
		if err != nil {
			logger.ErrorContext(ctx, "failed to build user", "email", seed.email, "error", err)
			failures++
			continue
		}
		u, created, err := createUser(ctx, svc, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "email", seed.email, "error", err)
			failures++
			continue
		}
		users[u.Email] = u
		msg := "user already exists"
		if created {
			msg = "created user"
		}
		logger.InfoContext(ctx, msg, "email", u.Email, "role", u.Role)
	}
	return users, failures
}

func (s userSeed) request(deptIDs map[string]string) (*model.CreateUserRequest, error) {
	req := &model.CreateUserRequest{
		Email:    s.email,
		FullName: s.name,
		Role:     s.role,
		Password: DefaultPassword,
	}
	if s.deptCode != "" {
		id, ok := deptIDs[s.deptCode]
		if !ok {
			return nil, fmt.Errorf("department %q not seeded", s.deptCode)
		}
		req.DepartmentID = &id
	}
	if s.number != "" {
		req.StudentNumber = stringPtr(s.number)
	}
	return req, nil
}

func createUser(ctx context.Context, svc *service.UserService, req *model.CreateUserRequest) (*model.User, bool, error) {
	existing, err := svc.GetByEmail(ctx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}
	u, err := svc.Create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func sampleComplaints(deptIDs map[string]string) []model.CreateComplaintRequest {
	return []model.CreateComplaintRequest{
		{
			DepartmentID: deptIDs["CS"],
			Category:     model.ComplaintCategoryGrade,
			CourseCode:   stringPtr("CS101"),
			Title:        "Midterm grade missing",
			Description:  "My midterm grade for CS101 has not been posted although classmates received theirs.",
			Priority:     model.ComplaintPriorityHigh,
		},
		{
			DepartmentID: deptIDs["MATH"],
			Category:     model.ComplaintCategoryCourse,
			CourseCode:   stringPtr("MATH210"),
			Title:        "Lecture recordings unavailable",
			Description:  "Recordings for the last two weeks of MATH210 lectures are not available.",
		},
		{
			DepartmentID: deptIDs["REG"],
			Category:     model.ComplaintCategoryOther,
			Title:        "Enrollment certificate delayed",
			Description:  "I requested an enrollment certificate three weeks ago and have not received it.",
			Priority:     model.ComplaintPriorityLow,
		},
	}
}

func seedComplaints(
	ctx context.Context,
	svc *service.ComplaintService,
	student *model.User,
	deptIDs map[string]string,
	logger *slog.Logger,
) error {
	p := domainauth.Principal{UserID: student.ID, Email: student.Email, Role: student.Role}
	existing, err := svc.ListMine(ctx, p, model.ComplaintListOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("list existing complaints: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "sample complaints already exist", "student", student.Email)
		return nil
	}

	var errs []error
	for _, req := range sampleComplaints(deptIDs) {
		if req.DepartmentID == "" {
			continue
		}
		c, err := svc.Submit(ctx, p, &req)
		if err != nil {
			errs = append(errs, fmt.Errorf("submit %q: %w", req.Title, err))
			continue
		}
		logger.InfoContext(ctx, "created complaint", "id", c.ID, "title", c.Title)
	}
	return errors.Join(errs...)
}

func stringPtr(s string) *string { return &s }
