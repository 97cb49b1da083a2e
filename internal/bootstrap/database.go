package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/migrate"
)

const (
	defaultMaxConns = 25
	connectTimeout  = 5 * time.Second
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens the Postgres pool and pings it.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxConns := cfg.DBConfig.MaxConns
	if maxConns < 1 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(min(5, maxConns))
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}
	return db, nil
}

// ConnectRedis builds a direct, sentinel or cluster client from cfg and pings it.
//
//nolint:ireturn // the concrete client type depends on the configured topology.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	client, desc, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), client.Close())
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", desc)
	}
	return client, nil
}

//nolint:ireturn // see ConnectRedis.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, "", err
	}

	switch {
	case cfg.UseCluster:
		return redis.NewClusterClient(opts.Cluster()), "cluster:" + strings.Join(opts.Addrs, ","), nil
	case cfg.UseSentinel:
		return redis.NewFailoverClient(opts.Failover()), "sentinel:" + opts.MasterName, nil
	default:
		return redis.NewClient(opts.Simple()), opts.Addrs[0], nil
	}
}

// universalOptions normalizes the three topologies into one option set.
// A redis:// or rediss:// URI supplies address, credentials, DB and TLS.
func universalOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password, DB: cfg.DB}

	if uri := strings.TrimSpace(cfg.URI); uri != "" {
		if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
			parsed, err := redis.ParseURL(uri)
			if err != nil {
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
			opts.Addrs = []string{parsed.Addr}
			opts.Username = parsed.Username
			opts.Password = parsed.Password
			opts.DB = parsed.DB
			opts.TLSConfig = parsed.TLSConfig
		} else {
			opts.Addrs = []string{uri}
		}
	}

	switch {
	case cfg.UseCluster:
		if nodes := nonEmpty(cfg.ClusterNodes); len(nodes) > 0 {
			opts.Addrs = nodes
		}
		if len(opts.Addrs) == 0 {
			return nil, errors.New("redis cluster configuration requires at least one address")
		}
		opts.DB = 0
	case cfg.UseSentinel:
		nodes := nonEmpty(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts.Addrs = nodes
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
	default:
		if len(opts.Addrs) == 0 {
			return nil, errors.New("redis direct configuration requires a URI")
		}
	}
	return opts, nil
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunMigrations applies pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	n, err := migrate.Run(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "applied", n)
	}
	return nil
}
