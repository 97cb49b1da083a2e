package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

func TestParseSortParam(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantField string
		wantDir   string
	}{
		{"combined asc", "sort=created_at:asc", "created_at", "asc"},
		{"combined uppercase", "sort=updated_at:DESC", "updated_at", "desc"},
		{"combined invalid direction", "sort=status:sideways", "status", ""},
		{"combined empty direction", "sort=priority:", "priority", ""},
		{"combined whitespace", "sort=+created_at+:+desc+", "created_at", "desc"},
		{"separate", "sort=created_at&dir=Asc", "created_at", "asc"},
		{"separate invalid direction", "sort=created_at&dir=up", "created_at", ""},
		{"combined wins over separate", "sort=title:asc&dir=desc", "title", "asc"},
		{"multiple colons", "sort=a:b:c", "a", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			field, dir := ParseSortParam(q, "sort", "dir")
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantDir, dir)
		})
	}
}

func TestParseSortParam_CustomKeys(t *testing.T) {
	q := url.Values{"order_by": {"created_at"}, "order_dir": {"desc"}}

	field, dir := ParseSortParam(q, "order_by", "order_dir")

	assert.Equal(t, "created_at", field)
	assert.Equal(t, SortDirDesc, dir)
}

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", defaultListLimit, 0},
		{"limit=10&offset=20", 10, 20},
		{"limit=0", 1, 0},
		{"limit=5000", maxListLimit, 0},
		{"limit=abc&offset=-3", defaultListLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestParseComplaintListOptions(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/department/complaints?status=in_review&category=GRADE&department_id=d-1&sort=created_at:asc&limit=25&offset=50", nil)

	opts, err := ParseComplaintListOptions(r)

	require.NoError(t, err)
	require.NotNil(t, opts.Status)
	assert.Equal(t, model.ComplaintStatusInReview, *opts.Status)
	require.NotNil(t, opts.Category)
	assert.Equal(t, model.ComplaintCategoryGrade, *opts.Category)
	require.NotNil(t, opts.DepartmentID)
	assert.Equal(t, "d-1", *opts.DepartmentID)
	assert.Equal(t, "created_at", opts.Sort)
	assert.Equal(t, SortDirAsc, opts.Dir)
	assert.Equal(t, 25, opts.Limit)
	assert.Equal(t, 50, opts.Offset)
}

func TestParseComplaintListOptions_Invalid(t *testing.T) {
	tests := []struct {
		query     string
		wantField string
	}{
		{"status=archived", "status"},
		{"category=parking", "category"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ParseComplaintListOptions(httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil))
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestParseUserListOptions(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/users?role=officer&department_id=d-2&q=+smith+", nil)

		opts, err := ParseUserListOptions(r)

		require.NoError(t, err)
		require.NotNil(t, opts.Role)
		assert.Equal(t, domainauth.RoleDepartmentOfficer, *opts.Role)
		require.NotNil(t, opts.DepartmentID)
		assert.Equal(t, "d-2", *opts.DepartmentID)
		require.NotNil(t, opts.Q)
		assert.Equal(t, "smith", *opts.Q)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := ParseUserListOptions(httptest.NewRequest(http.MethodGet, "/api/users?role=dean", nil))
		assert.Equal(t, "role", apperrors.GetField(err))
	})

	t.Run("no filters", func(t *testing.T) {
		opts, err := ParseUserListOptions(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.NoError(t, err)
		assert.Nil(t, opts.Role)
		assert.Nil(t, opts.Q)
		assert.Equal(t, defaultListLimit, opts.Limit)
	})
}
