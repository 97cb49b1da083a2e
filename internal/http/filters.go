package httpx

import (
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

const (
	// SortDirAsc represents ascending sort direction.
	SortDirAsc = "asc"
	// SortDirDesc represents descending sort direction.
	SortDirDesc = "desc"

	defaultListLimit = 50
	maxListLimit     = 200
)

// ParseSortParam extracts and validates sort field and direction from URL query parameters.
// It supports two formats:
// 1. Combined format: ?sort=field:dir (e.g., ?sort=created_at:desc)
// 2. Separate format: ?sort=field&dir=direction (e.g., ?sort=created_at&dir=desc)
//
// The direction is normalized to lowercase; an unknown direction yields "".
func ParseSortParam(q url.Values, sortKey, dirKey string) (string, string) {
	sortParam := strings.TrimSpace(q.Get(sortKey))
	dirParam := strings.ToLower(strings.TrimSpace(q.Get(dirKey)))

	if field, dir, ok := strings.Cut(sortParam, ":"); ok {
		field = strings.TrimSpace(field)
		dir = strings.ToLower(strings.TrimSpace(dir))
		if dir == SortDirAsc || dir == SortDirDesc {
			return field, dir
		}
		return field, ""
	}

	if dirParam == SortDirAsc || dirParam == SortDirDesc {
		return sortParam, dirParam
	}
	return sortParam, ""
}

// ParseComplaintListOptions reads paging, sorting and the status, category
// and department_id filters of a complaint listing.
func ParseComplaintListOptions(r *http.Request) (model.ComplaintListOptions, error) {
	q := r.URL.Query()
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.ComplaintListOptions{Limit: limit, Offset: offset}
	opts.Sort, opts.Dir = ParseSortParam(q, "sort", "dir")

	if v := q.Get("status"); v != "" {
		st, ok := model.ParseComplaintStatus(v)
		if !ok {
			return opts, apperrors.ValidationField("status", "unknown status")
		}
		opts.Status = &st
	}
	if v := q.Get("category"); v != "" {
		cat := model.ComplaintCategory(strings.ToLower(strings.TrimSpace(v)))
		if !cat.Valid() {
			return opts, apperrors.ValidationField("category", "unknown category")
		}
		opts.Category = &cat
	}
	if v := strings.TrimSpace(q.Get("department_id")); v != "" {
		opts.DepartmentID = &v
	}
	return opts, nil
}

// ParseUserListOptions reads paging and the role, department_id and q
// filters of a user listing.
func ParseUserListOptions(r *http.Request) (model.UserListOptions, error) {
	q := r.URL.Query()
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.UserListOptions{Limit: limit, Offset: offset}

	if v := q.Get("role"); v != "" {
		role, ok := domainauth.ParseRole(v)
		if !ok {
			return opts, apperrors.ValidationField("role", "unknown role")
		}
		opts.Role = &role
	}
	if v := strings.TrimSpace(q.Get("department_id")); v != "" {
		opts.DepartmentID = &v
	}
	if v := strings.TrimSpace(q.Get("q")); v != "" {
		opts.Q = &v
	}
	return opts, nil
}
