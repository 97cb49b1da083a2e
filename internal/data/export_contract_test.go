package data

import (
	"reflect"
	"testing"

	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/ports"
)

var (
	_ core.UserRepository         = (*UserRepo)(nil)
	_ core.DepartmentRepository   = (*DepartmentRepo)(nil)
	_ core.ComplaintRepository    = (*ComplaintRepo)(nil)
	_ core.AttachmentRepository   = (*AttachmentRepo)(nil)
	_ core.NotificationRepository = (*NotificationRepo)(nil)
	_ core.AnalyticsRepository    = (*AnalyticsRepo)(nil)
	_ core.CacheRepository        = (*RedisCacheRepo)(nil)
	_ ports.UserDirectory         = (*UserRepo)(nil)
)

// The repos are wired through core interfaces; a new exported method must be
// added to the interface (and its mock) as well.
func TestComplaintRepoExportedMethodsMatchAllowlist(t *testing.T) {
	assertExportedMethods(t, &ComplaintRepo{}, reflect.TypeOf((*core.ComplaintRepository)(nil)).Elem())
	assertExportedMethods(t, &UserRepo{}, reflect.TypeOf((*core.UserRepository)(nil)).Elem())
	assertExportedMethods(t, &NotificationRepo{}, reflect.TypeOf((*core.NotificationRepository)(nil)).Elem())
}

func assertExportedMethods(t *testing.T, repo any, iface reflect.Type) {
	t.Helper()
	allowed := make(map[string]struct{}, iface.NumMethod())
	for i := range iface.NumMethod() {
		allowed[iface.Method(i).Name] = struct{}{}
	}

	methods := reflect.TypeOf(repo)
	seen := make(map[string]struct{})
	for i := range methods.NumMethod() {
		m := methods.Method(i)
		if !m.IsExported() {
			continue
		}
		if _, ok := allowed[m.Name]; !ok {
			t.Fatalf("unexpected exported method on %s: %s", methods.Elem().Name(), m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	for name := range allowed {
		if _, ok := seen[name]; !ok {
			t.Fatalf("expected %s to export method %s", methods.Elem().Name(), name)
		}
	}
}
