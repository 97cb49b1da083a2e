package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/adapters/password"
	redisadapter "github.com/acadly/complaintdesk/internal/adapters/redis"
	"github.com/acadly/complaintdesk/internal/bootstrap"
	"github.com/acadly/complaintdesk/internal/data"
	"github.com/acadly/complaintdesk/internal/service"
)

var errRedisNotConfigured = errors.New("redis not configured")

// adminInfra holds the connections and services an account command uses.
// Sessions is nil when Redis is not configured.
type adminInfra struct {
	DB          *sql.DB
	Redis       redis.UniversalClient
	Sessions    *redisadapter.SessionStore
	Users       *service.UserService
	Departments *service.DepartmentService
}

// withInfra connects Postgres and, when wantRedis is set, Redis, then runs f.
// requireRedis turns a missing Redis configuration into an error.
func (c *commandContext) withInfra(
	parent context.Context,
	timeout time.Duration,
	wantRedis, requireRedis bool,
	f func(context.Context, *adminInfra) error,
) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: c.Config.Postgres, Logger: c.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	var client redis.UniversalClient
	if wantRedis {
		client, err = attachRedisClient(c.Logger, &c.Config.Redis)
		switch {
		case errors.Is(err, errRedisNotConfigured) && !requireRedis:
		case err != nil:
			return errors.Join(err, closeInfra(db, nil))
		}
	}

	infra := newAdminInfra(db, client)
	runErr := f(ctx, infra)
	if cerr := closeInfra(db, client); cerr != nil {
		c.Logger.Warn("close infrastructure failed", "error", cerr)
	}
	return runErr
}

func newAdminInfra(db *sql.DB, client redis.UniversalClient) *adminInfra {
	userRepo := data.NewUserRepo(db)
	infra := &adminInfra{
		DB:    db,
		Redis: client,
		Departments: service.NewDepartmentService(service.DepartmentServiceOptions{
			Repo:  data.NewDepartmentRepo(db),
			Users: userRepo,
		}),
	}
	opts := service.UserServiceOptions{
		Repo:   userRepo,
		Hasher: password.NewArgon2idHasher(),
	}
	if client != nil {
		infra.Sessions = bootstrap.NewSessionStore(client)
		opts.Sessions = infra.Sessions
	}
	infra.Users = service.NewUserService(opts)
	return infra
}

// attachRedisClient connects Redis when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func attachRedisClient(logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		if logger != nil {
			logger.Info("no redis configuration detected; skipping redis connection")
		}
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: *cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}
