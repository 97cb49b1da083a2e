package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/data"
)

func newTestContext(cfg config.AppConfig) *commandContext {
	return &commandContext{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		loadConfig: func() (config.AppConfig, error) { return cfg, nil },
	}
}

func execute(t *testing.T, cmdCtx *commandContext, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(cmdCtx)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(newTestContext(config.AppConfig{}))

	for _, path := range [][]string{
		{"migrate"},
		{"seed"},
		{"verify"},
		{"user", "add"},
		{"user", "set-role"},
		{"user", "reset-password"},
		{"sessions", "revoke"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRootCmd_LoadConfigError(t *testing.T) {
	cmdCtx := newTestContext(config.AppConfig{})
	cmdCtx.loadConfig = func() (config.AppConfig, error) { return config.AppConfig{}, errors.New("bad env") }

	_, err := execute(t, cmdCtx, "", "verify")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestSeed_RefusesRemoteHost(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.Postgres.Host = "db.prod.example.edu"

	_, err := execute(t, newTestContext(cfg), "", "seed")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--allow-remote")
}

func TestSeed_RemoteHostNeedsTypedConfirmation(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.Postgres.Host = "db.prod.example.edu"

	out, err := execute(t, newTestContext(cfg), "yes\n", "seed", "--allow-remote")

	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, out, "does not look like a local address")
}

func TestSessionsRevoke_AbortsWithoutConfirmation(t *testing.T) {
	out, err := execute(t, newTestContext(config.AppConfig{}), "n\n", "sessions", "revoke", "Student@Example.edu")

	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, out, "student@example.edu")
}

func TestUserSetRole_OfficerNeedsDepartment(t *testing.T) {
	_, err := execute(t, newTestContext(config.AppConfig{}), "", "user", "set-role", "a@example.edu", "officer")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--department")
}

func TestUserAdd_UnknownRole(t *testing.T) {
	_, err := execute(t, newTestContext(config.AppConfig{}), "",
		"user", "add", "a@example.edu", "--name", "A", "--role", "dean")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "dean"`)
}

func TestUserResetPassword_RequiresPassword(t *testing.T) {
	_, err := execute(t, newTestContext(config.AppConfig{}), "", "user", "reset-password", "a@example.edu")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password")
}

func TestPasswordFlags_Resolve(t *testing.T) {
	p := passwordFlags{value: "from-flag"}
	got, err := p.resolve(strings.NewReader("ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-flag", got)

	p = passwordFlags{fromStdin: true}
	got, err = p.resolve(strings.NewReader("s3cret pass\r\nsecond line\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret pass", got)

	_, err = p.resolve(strings.NewReader(""))
	require.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"localhost":           false,
		" LOCALHOST ":         false,
		"127.0.0.1":           false,
		"127.0.0.2":           false,
		"::1":                 false,
		"postgres.local":      false,
		"10.0.0.5":            true,
		"db.prod.example.edu": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestRequireRemoteHostConfirmation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, requireRemoteHostConfirmation(strings.NewReader("db.example.edu\n"), &out, "seed", "db.example.edu"))

	out.Reset()
	err := requireRemoteHostConfirmation(strings.NewReader("\n"), &out, "seed", "db.example.edu")
	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, out.String(), "aborting")
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseCluster: true}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseCluster: true, ClusterNodes: []string{"a:7000"}}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}}))
}

func TestPrintIntegrityReport(t *testing.T) {
	t.Run("missing tables", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printIntegrityReport(&out, &data.IntegrityReport{MissingTables: []string{"users", "complaints"}}))
		assert.Contains(t, out.String(), "Missing tables: users, complaints")
		assert.Contains(t, out.String(), "migrate")
	})

	t.Run("checks", func(t *testing.T) {
		var out bytes.Buffer
		rep := &data.IntegrityReport{
			RowCounts:            map[string]int{"users": 3, "departments": 2},
			AssigneesNotOfficers: 1,
		}
		require.NoError(t, printIntegrityReport(&out, rep))

		s := out.String()
		assert.Less(t, strings.Index(s, "departments"), strings.Index(s, "users"))
		assert.Contains(t, s, "FAIL (1)")
		assert.Contains(t, s, "officers without a department")
	})
}
