package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/testutil"
)

func TestDepartmentRepo_Create_Get_List_Update_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewDepartmentRepo(db)

		desc := "Undergraduate computing"
		d, err := repo.Create(ctx, &model.CreateDepartmentRequest{Code: "cs", Name: "Computer Science", Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "CS", d.Code)

		byCode, err := repo.GetByCode(ctx, "cs")
		require.NoError(t, err)
		assert.Equal(t, d.ID, byCode.ID)

		lst, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Len(t, lst, 1)

		name := "Computing"
		empty := ""
		updated, err := repo.Update(ctx, d.ID, model.UpdateDepartmentRequest{Name: &name, Description: &empty})
		require.NoError(t, err)
		assert.Equal(t, "Computing", updated.Name)
		assert.Nil(t, updated.Description)

		deleted, err := repo.Delete(ctx, d.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, d.ID)
		require.ErrorIs(t, err, ErrDepartmentNotFound)
	})
}

func TestDepartmentRepo_DuplicateCode(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewDepartmentRepo(db)

		_, err := repo.Create(ctx, &model.CreateDepartmentRequest{Code: "MATH", Name: "Mathematics"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &model.CreateDepartmentRequest{Code: "math", Name: "Maths again"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "code", apperrors.GetField(err))
	})
}

func TestDepartmentRepo_DeleteInUse(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewDepartmentRepo(db)
		deptID := testutil.InsertDepartment(t, db, testutil.Unique("D"))
		testutil.InsertUser(t, db, domainauth.RoleDepartmentOfficer, deptID)

		_, err := repo.Delete(ctx, deptID)
		require.Error(t, err)
		assert.True(t, apperrors.IsForeignKey(err))
	})
}
