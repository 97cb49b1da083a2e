package ports_test

import (
	"testing"

	"github.com/acadly/complaintdesk/internal/adapters/password"
	"github.com/acadly/complaintdesk/internal/adapters/redis"
	mocks "github.com/acadly/complaintdesk/internal/mocks/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

// This test only verifies that adapters and test doubles conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.UserDirectory = (*mocks.StaticDirectory)(nil)
	var _ ports.LoginLimiter = (*mocks.MemoryLoginLimiter)(nil)
	var _ ports.SessionStore = (*redis.SessionStore)(nil)
	var _ ports.LoginLimiter = (*redis.LoginLimiter)(nil)
	var _ ports.PasswordHasher = (*password.Argon2idHasher)(nil)
}
