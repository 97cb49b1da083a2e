package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/testutil"
)

type complaintFixture struct {
	deptID    string
	studentID string
	officerID string
}

func newComplaintFixture(t *testing.T, db *sql.DB) complaintFixture {
	t.Helper()
	deptID := testutil.InsertDepartment(t, db, testutil.Unique("D"))
	return complaintFixture{
		deptID:    deptID,
		studentID: testutil.InsertUser(t, db, domainauth.RoleStudent, ""),
		officerID: testutil.InsertUser(t, db, domainauth.RoleDepartmentOfficer, deptID),
	}
}

func TestComplaintRepo_Create_Get_List(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		repo := NewComplaintRepoWithClock(db, FixedClock(now))
		fx := newComplaintFixture(t, db)

		c, err := repo.Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)
		assert.Equal(t, model.ComplaintStatusPending, c.Status)
		assert.Equal(t, model.ComplaintPriorityNormal, c.Priority)
		assert.True(t, now.Equal(c.CreatedAt))
		require.NotNil(t, c.CourseCode)
		assert.Equal(t, "CS101", *c.CourseCode)

		_, err = repo.Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).
			WithCategory(model.ComplaintCategoryOther).WithTitle("Library hours").Build())
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Title, got.Title)

		mine, err := repo.List(ctx, model.ComplaintListOptions{StudentID: &fx.studentID})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		grade := model.ComplaintCategoryGrade
		grades, err := repo.List(ctx, model.ComplaintListOptions{DepartmentID: &fx.deptID, Category: &grade})
		require.NoError(t, err)
		require.Len(t, grades, 1)
		assert.Equal(t, c.ID, grades[0].ID)

		byTitle, err := repo.List(ctx, model.ComplaintListOptions{Sort: "title", Dir: "asc"})
		require.NoError(t, err)
		require.Len(t, byTitle, 2)
		assert.Equal(t, "Library hours", byTitle[0].Title)

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrComplaintNotFound)
	})
}

func TestComplaintRepo_UpdateStatus(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewComplaintRepo(db)
		fx := newComplaintFixture(t, db)

		c, err := repo.Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)

		inReview, err := repo.UpdateStatus(ctx, model.ComplaintStatusChange{
			ID: c.ID, From: model.ComplaintStatusPending, To: model.ComplaintStatusInReview,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ComplaintStatusInReview, inReview.Status)
		assert.Nil(t, inReview.ResolvedAt)

		// stale From
		_, err = repo.UpdateStatus(ctx, model.ComplaintStatusChange{
			ID: c.ID, From: model.ComplaintStatusPending, To: model.ComplaintStatusRejected,
		})
		require.ErrorIs(t, err, ErrStatusChanged)

		at := time.Now().UTC().Truncate(time.Second)
		resolved, err := repo.UpdateStatus(ctx, model.ComplaintStatusChange{
			ID: c.ID, From: model.ComplaintStatusInReview, To: model.ComplaintStatusResolved, At: at,
		})
		require.NoError(t, err)
		require.NotNil(t, resolved.ResolvedAt)
		assert.True(t, at.Equal(*resolved.ResolvedAt))

		_, err = repo.UpdateStatus(ctx, model.ComplaintStatusChange{
			ID: "00000000-0000-0000-0000-000000000000", From: model.ComplaintStatusPending, To: model.ComplaintStatusInReview,
		})
		require.ErrorIs(t, err, ErrComplaintNotFound)
	})
}

func TestComplaintRepo_UpdateStatus_ConcurrentWritersOneWins(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewComplaintRepo(db)
		fx := newComplaintFixture(t, db)
		c, err := repo.Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)

		move := func(to model.ComplaintStatus) func() error {
			return func() error {
				_, err := repo.UpdateStatus(ctx, model.ComplaintStatusChange{
					ID: c.ID, From: model.ComplaintStatusPending, To: to,
				})
				return err
			}
		}
		runner := testutil.NewConcurrentTestRunner(t, db)
		errs := runner.RunConcurrent(move(model.ComplaintStatusResolved), move(model.ComplaintStatusRejected))

		var failures int
		for _, e := range errs {
			if e != nil {
				assert.ErrorIs(t, e, ErrStatusChanged)
				failures++
			}
		}
		assert.Equal(t, 1, failures)
	})
}

func TestComplaintRepo_AssignAndResponses(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewComplaintRepo(db)
		fx := newComplaintFixture(t, db)
		c, err := repo.Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)

		assigned, err := repo.Assign(ctx, c.ID, fx.officerID)
		require.NoError(t, err)
		require.NotNil(t, assigned.AssignedOfficerID)
		assert.Equal(t, fx.officerID, *assigned.AssignedOfficerID)

		queue, err := repo.List(ctx, model.ComplaintListOptions{AssignedOfficerID: &fx.officerID})
		require.NoError(t, err)
		assert.Len(t, queue, 1)

		cleared, err := repo.Assign(ctx, c.ID, "")
		require.NoError(t, err)
		assert.Nil(t, cleared.AssignedOfficerID)

		_, err = repo.AddResponse(ctx, &model.CreateResponseRequest{
			ComplaintID: c.ID, AuthorID: fx.officerID, Message: "  We are checking with the lecturer. ",
		})
		require.NoError(t, err)
		r2, err := repo.AddResponse(ctx, &model.CreateResponseRequest{
			ComplaintID: c.ID, AuthorID: fx.studentID, Message: "Thanks",
		})
		require.NoError(t, err)
		assert.Equal(t, "Test student", r2.AuthorName)

		thread, err := repo.ListResponses(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, thread, 2)
		assert.Equal(t, "We are checking with the lecturer.", thread[0].Message)
		assert.Equal(t, "Test department_officer", thread[0].AuthorName)

		_, err = repo.AddResponse(ctx, &model.CreateResponseRequest{ComplaintID: c.ID, AuthorID: fx.studentID, Message: " "})
		require.Error(t, err)
	})
}

func TestAttachmentRepo_CreateListGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fx := newComplaintFixture(t, db)
		c, err := NewComplaintRepo(db).Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)

		repo := NewAttachmentRepo(db)
		req := &model.CreateAttachmentRequest{
			ComplaintID: c.ID,
			UploadedBy:  fx.studentID,
			FileName:    "transcript.txt",
			ContentType: "text/plain",
			Content:     []byte("grade: B"),
		}
		require.NoError(t, req.Validate(1024))
		a, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(8), a.SizeBytes)
		assert.Nil(t, a.Content)

		list, err := repo.ListByComplaint(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		full, err := repo.Get(ctx, c.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("grade: B"), full.Content)

		other, err := NewComplaintRepo(db).Create(ctx, testutil.NewComplaintRequest(fx.studentID, fx.deptID).Build())
		require.NoError(t, err)
		_, err = repo.Get(ctx, other.ID, a.ID)
		require.ErrorIs(t, err, ErrAttachmentNotFound)
	})
}

func TestValidateComplaintSort(t *testing.T) {
	tests := []struct {
		sort, dir        string
		wantCol, wantDir string
	}{
		{"", "", "created_at", sortDirDesc},
		{"title", "asc", "title", sortDirAsc},
		{"UPDATED_AT", "DESC", "updated_at", sortDirDesc},
		{"priority; drop table", "sideways", "created_at", sortDirDesc},
	}
	for _, tt := range tests {
		col, dir := validateComplaintSort(tt.sort, tt.dir)
		assert.Equal(t, tt.wantCol, col)
		assert.Equal(t, tt.wantDir, dir)
	}
}

func TestBuildComplaintQueryOptions(t *testing.T) {
	dept := "d1"
	status := model.ComplaintStatusInReview
	blank := " "
	opts := buildComplaintQueryOptions(model.ComplaintListOptions{
		DepartmentID: &dept,
		Status:       &status,
		StudentID:    &blank,
		Limit:        1000,
		Offset:       -3,
	})
	assert.Equal(t, "complaints", opts.Table)
	assert.Len(t, opts.Conditions, 2)
	assert.Equal(t, 500, opts.Limit)
	assert.Equal(t, 0, opts.Offset)
	assert.Equal(t, "created_at", opts.OrderBy)
}
