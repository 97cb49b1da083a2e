package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acadly/complaintdesk/internal/core"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// DefaultAttachmentMaxBytes is used when ComplaintServiceOptions.AttachmentMaxBytes is unset.
const DefaultAttachmentMaxBytes = 5 << 20

var (
	errNotParticipant = apperrors.Forbidden("you are not a participant of this complaint")
	errNotHandler     = apperrors.Forbidden("only the complaint's department or an administrator can do this")
	errNotOwner       = apperrors.Forbidden("only the student who filed the complaint can do this")
)

// ComplaintServiceOptions groups dependencies for ComplaintService.
type ComplaintServiceOptions struct {
	Complaints         core.ComplaintRepository
	Attachments        core.AttachmentRepository
	Departments        core.DepartmentRepository
	Users              core.UserRepository
	Notifier           *NotificationService
	Analytics          *AnalyticsService
	AttachmentMaxBytes int64
	Logger             *slog.Logger
}

// ComplaintService runs the complaint workflow: submission by students,
// triage by department officers, and oversight by administrators.
type ComplaintService struct {
	complaints  core.ComplaintRepository
	attachments core.AttachmentRepository
	departments core.DepartmentRepository
	users       core.UserRepository
	notifier    *NotificationService
	analytics   *AnalyticsService
	maxBytes    int64
	logger      *slog.Logger
}

// NewComplaintService constructs a new ComplaintService.
func NewComplaintService(opts ComplaintServiceOptions) *ComplaintService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := opts.AttachmentMaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultAttachmentMaxBytes
	}
	return &ComplaintService{
		complaints:  opts.Complaints,
		attachments: opts.Attachments,
		departments: opts.Departments,
		users:       opts.Users,
		notifier:    opts.Notifier,
		analytics:   opts.Analytics,
		maxBytes:    maxBytes,
		logger:      logger.With("component", "complaint_service"),
	}
}

// AttachmentMaxBytes returns the upload size limit.
func (s *ComplaintService) AttachmentMaxBytes() int64 { return s.maxBytes }

// Submit files a complaint on behalf of a student and notifies the officers
// of the target department.
func (s *ComplaintService) Submit(
	ctx context.Context,
	p domainauth.Principal,
	req *model.CreateComplaintRequest,
) (*model.Complaint, error) {
	if !p.Is(domainauth.RoleStudent) {
		return nil, apperrors.Forbidden("only students can submit complaints")
	}
	if req == nil {
		return nil, errors.New("create complaint request is required")
	}
	req.StudentID = p.UserID
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.departments.GetByID(ctx, req.DepartmentID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("department_id", "department does not exist")
		}
		return nil, err
	}

	c, err := s.complaints.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	officers, err := s.users.ListOfficers(ctx, c.DepartmentID)
	if err != nil {
		s.logger.WarnContext(ctx, "list officers for notification failed", "complaint_id", c.ID, "error", err)
	}
	ids := make([]string, 0, len(officers))
	for _, o := range officers {
		ids = append(ids, o.ID)
	}
	s.notifier.Notify(ctx, model.NotificationComplaintSubmitted, c.ID,
		fmt.Sprintf("New complaint: %s", c.Title), ids...)
	s.analytics.Invalidate(ctx, c.DepartmentID)

	s.logger.InfoContext(ctx, "complaint submitted",
		"complaint_id", c.ID,
		"department_id", c.DepartmentID,
		"category", c.Category,
	)
	return c, nil
}

// Get returns a complaint with its thread and attachments. Students see
// their own complaints, officers those of their department, and
// administrators every complaint.
func (s *ComplaintService) Get(ctx context.Context, p domainauth.Principal, id string) (*model.ComplaintDetail, error) {
	c, err := s.loadForView(ctx, p, id)
	if err != nil {
		return nil, err
	}

	responses, err := s.complaints.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []model.Attachment{}
	}
	detail := &model.ComplaintDetail{Complaint: *c, Responses: responses, Attachments: attachments}

	dept, err := s.departments.GetByID(ctx, c.DepartmentID)
	if err != nil {
		s.logger.WarnContext(ctx, "load complaint department failed", "complaint_id", id, "error", err)
	} else {
		detail.Department = dept
	}
	return detail, nil
}

// ListMine returns the calling student's complaints.
func (s *ComplaintService) ListMine(
	ctx context.Context,
	p domainauth.Principal,
	opts model.ComplaintListOptions,
) ([]*model.Complaint, error) {
	if !p.Is(domainauth.RoleStudent) {
		return nil, apperrors.Forbidden("only students have their own complaints")
	}
	opts.StudentID = &p.UserID
	return s.complaints.List(ctx, opts)
}

// ListForDepartment returns the triage queue. Officers are always scoped
// to their own department; administrators may filter freely.
func (s *ComplaintService) ListForDepartment(
	ctx context.Context,
	p domainauth.Principal,
	opts model.ComplaintListOptions,
) ([]*model.Complaint, error) {
	switch p.Role {
	case domainauth.RoleAdmin:
		return s.complaints.List(ctx, opts)
	case domainauth.RoleDepartmentOfficer:
		deptID, err := s.officerDepartment(ctx, p)
		if err != nil {
			return nil, err
		}
		opts.DepartmentID = &deptID
		return s.complaints.List(ctx, opts)
	default:
		return nil, errNotHandler
	}
}

// ListResponses returns a complaint's thread.
func (s *ComplaintService) ListResponses(
	ctx context.Context,
	p domainauth.Principal,
	id string,
) ([]model.ComplaintResponse, error) {
	if _, err := s.loadForView(ctx, p, id); err != nil {
		return nil, err
	}
	return s.complaints.ListResponses(ctx, id)
}

// ChangeStatus moves a complaint along the workflow. A note, when given, is
// added to the thread. The student is notified.
func (s *ComplaintService) ChangeStatus(
	ctx context.Context,
	p domainauth.Principal,
	id string,
	req *model.UpdateComplaintStatusRequest,
) (*model.Complaint, error) {
	if req == nil {
		return nil, errors.New("update status request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.loadForManage(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransition(req.Status) {
		return nil, apperrors.ValidationField("status",
			fmt.Sprintf("cannot move a complaint from %s to %s", c.Status, req.Status))
	}

	updated, err := s.complaints.UpdateStatus(ctx, model.ComplaintStatusChange{
		ID:   id,
		From: c.Status,
		To:   req.Status,
	})
	if err != nil {
		return nil, err
	}

	if req.Note != nil {
		if _, noteErr := s.complaints.AddResponse(ctx, &model.CreateResponseRequest{
			ComplaintID: id,
			AuthorID:    p.UserID,
			Message:     *req.Note,
		}); noteErr != nil {
			s.logger.WarnContext(ctx, "status note not stored", "complaint_id", id, "error", noteErr)
		}
	}

	s.notifier.Notify(ctx, model.NotificationStatusChanged, id,
		fmt.Sprintf("Your complaint %q is now %s", updated.Title, updated.Status), updated.StudentID)
	s.analytics.Invalidate(ctx, updated.DepartmentID)
	s.logger.InfoContext(ctx, "complaint status changed",
		"complaint_id", id,
		"from", c.Status,
		"to", updated.Status,
		"by", p.UserID,
	)
	return updated, nil
}

// AddResponse posts an officer or administrator message to a complaint's
// thread and notifies the student.
func (s *ComplaintService) AddResponse(
	ctx context.Context,
	p domainauth.Principal,
	id string,
	req *model.CreateResponseRequest,
) (*model.ComplaintResponse, error) {
	if req == nil {
		return nil, errors.New("create response request is required")
	}
	c, err := s.loadForManage(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, apperrors.Conflictf("complaint is already %s", c.Status)
	}
	req.ComplaintID = id
	req.AuthorID = p.UserID

	resp, err := s.complaints.AddResponse(ctx, req)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, model.NotificationResponseAdded, id,
		fmt.Sprintf("New response on %q", c.Title), c.StudentID)
	return resp, nil
}

// Assign hands a complaint to an officer of its department.
func (s *ComplaintService) Assign(
	ctx context.Context,
	p domainauth.Principal,
	id string,
	req *model.AssignComplaintRequest,
) (*model.Complaint, error) {
	if req == nil {
		return nil, errors.New("assign request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.loadForManage(ctx, p, id)
	if err != nil {
		return nil, err
	}

	officer, err := s.users.GetByID(ctx, req.OfficerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("officer_id", "officer does not exist")
		}
		return nil, err
	}
	if officer.Role != domainauth.RoleDepartmentOfficer || officer.DepartmentID == nil ||
		*officer.DepartmentID != c.DepartmentID {
		return nil, apperrors.ValidationField("officer_id", "officer must belong to the complaint's department")
	}
	return s.complaints.Assign(ctx, id, officer.ID)
}

// UploadAttachment stores a file against the calling student's complaint.
func (s *ComplaintService) UploadAttachment(
	ctx context.Context,
	p domainauth.Principal,
	id string,
	req *model.CreateAttachmentRequest,
) (*model.Attachment, error) {
	if req == nil {
		return nil, errors.New("attachment request is required")
	}
	if !p.Is(domainauth.RoleStudent) {
		return nil, errNotOwner
	}
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errNotOwner
		}
		return nil, err
	}
	if c.StudentID != p.UserID {
		return nil, errNotOwner
	}
	if c.Status.Terminal() {
		return nil, apperrors.Conflictf("complaint is already %s", c.Status)
	}
	req.ComplaintID = id
	req.UploadedBy = p.UserID
	if err := req.Validate(s.maxBytes); err != nil {
		return nil, err
	}
	return s.attachments.Create(ctx, req)
}

// GetAttachment returns an attachment with its content for any participant.
func (s *ComplaintService) GetAttachment(
	ctx context.Context,
	p domainauth.Principal,
	complaintID, attachmentID string,
) (*model.Attachment, error) {
	if _, err := s.loadForView(ctx, p, complaintID); err != nil {
		return nil, err
	}
	return s.attachments.Get(ctx, complaintID, attachmentID)
}

// loadForView answers a student's missing complaint like someone else's, so
// ids of other students' complaints reveal nothing about whether they exist.
func (s *ComplaintService) loadForView(ctx context.Context, p domainauth.Principal, id string) (*model.Complaint, error) {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if p.Is(domainauth.RoleStudent) && apperrors.IsNotFound(err) {
			return nil, errNotParticipant
		}
		return nil, err
	}
	switch p.Role {
	case domainauth.RoleAdmin:
		return c, nil
	case domainauth.RoleStudent:
		if c.StudentID == p.UserID {
			return c, nil
		}
	case domainauth.RoleDepartmentOfficer:
		ok, err := s.inDepartment(ctx, p, c)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
	}
	return nil, errNotParticipant
}

func (s *ComplaintService) loadForManage(ctx context.Context, p domainauth.Principal, id string) (*model.Complaint, error) {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case domainauth.RoleAdmin:
		return c, nil
	case domainauth.RoleDepartmentOfficer:
		ok, err := s.inDepartment(ctx, p, c)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
	}
	return nil, errNotHandler
}

func (s *ComplaintService) inDepartment(ctx context.Context, p domainauth.Principal, c *model.Complaint) (bool, error) {
	deptID, err := s.officerDepartment(ctx, p)
	if err != nil {
		return false, err
	}
	return deptID == c.DepartmentID, nil
}

// officerDepartment reads the officer's department from the directory on
// every call so reassignments apply immediately.
func (s *ComplaintService) officerDepartment(ctx context.Context, p domainauth.Principal) (string, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", errNotHandler
		}
		return "", err
	}
	if u.Role != domainauth.RoleDepartmentOfficer || u.DepartmentID == nil {
		return "", errNotHandler
	}
	return *u.DepartmentID, nil
}
