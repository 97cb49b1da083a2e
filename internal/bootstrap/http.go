package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/acadly/complaintdesk/config"
	httpx "github.com/acadly/complaintdesk/internal/http"
)

const (
	defaultHTTPAddr     = ":8080"
	httpShutdownTimeout = 15 * time.Second
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

func newHTTPServer(cfg *HTTPServerConfig) *http.Server {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = defaultHTTPAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(buildRouterServices(cfg, appCfg, logger)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// serveHTTP listens on srv.Addr until ctx is done, then drains in-flight
// requests for up to httpShutdownTimeout.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
	defer cancel()
	logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildRouterServices(cfg *HTTPServerConfig, appCfg *config.AppConfig, logger *slog.Logger) httpx.RouterServices {
	svcs := cfg.Services
	rs := httpx.RouterServices{
		Gate:            svcs.Gate,
		Auth:            svcs.Auth,
		Complaints:      svcs.Complaints,
		Users:           svcs.Users,
		Departments:     svcs.Departments,
		Notifications:   svcs.Notifications,
		Analytics:       svcs.Analytics,
		HealthChecks:    buildHealthChecks(cfg.DB, svcs),
		Metrics:         svcs.Observability.Metrics,
		PasswordEnabled: true,
		SSOEnabled:      svcs.SSOEnabled,
		CookieDomain:    appCfg.HTTP.CookieDomain,
		Logger:          logger,
	}
	if appCfg.Metrics.Enabled && svcs.Observability.Registry != nil {
		rs.MetricsGatherer = svcs.Observability.Registry
		rs.MetricsPath = appCfg.Metrics.Path
	}
	return rs
}

func buildHealthChecks(db *sql.DB, svcs ServiceContainer) []httpx.HealthCheck {
	var checks []httpx.HealthCheck
	if db != nil {
		checks = append(checks, httpx.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if svcs.Cache != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: svcs.Cache.Health})
	}
	return checks
}
