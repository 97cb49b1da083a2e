package bootstrap

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/adapters/password"
	"github.com/acadly/complaintdesk/internal/data"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Gate          *service.AccessGate
	Auth          *service.AuthService
	Complaints    *service.ComplaintService
	Users         *service.UserService
	Departments   *service.DepartmentService
	Notifications *service.NotificationService
	Analytics     *service.AnalyticsService
	SSOEnabled    bool
	Observability ObservabilityContainer

	// Cache backs the readiness check for Redis.
	Cache *data.RedisCacheRepo
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users         *data.UserRepo
	Departments   *data.DepartmentRepo
	Complaints    *data.ComplaintRepo
	Attachments   *data.AttachmentRepo
	Notifications *data.NotificationRepo
	Analytics     *data.AnalyticsRepo
	Cache         *data.RedisCacheRepo
}

// buildObservability creates a private registry with the runtime collectors
// and the application metrics.
func buildObservability() ObservabilityContainer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return ObservabilityContainer{Registry: reg, Metrics: metrics.New(reg)}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, rdb redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		Users:         data.NewUserRepo(db),
		Departments:   data.NewDepartmentRepo(db),
		Complaints:    data.NewComplaintRepo(db),
		Attachments:   data.NewAttachmentRepo(db),
		Notifications: data.NewNotificationRepo(db),
		Analytics:     data.NewAnalyticsRepo(db),
	}
	if rdb != nil {
		repos.Cache = data.NewRedisCacheRepo(rdb)
	}
	return repos
}

// NewServices wires repositories, auth, the access gate and domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	obs := buildObservability()
	repos := buildRepositories(deps.DB, deps.RedisClient)
	hasher := password.NewArgon2idHasher()

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Users:       repos.Users,
		Hasher:      hasher,
		Metrics:     obs.Metrics,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	gate := service.NewAccessGate(service.AccessGateOptions{
		Sessions:  auth.Sessions,
		Directory: repos.Users,
		Metrics:   obs.Metrics,
		Logger:    logger,
	})

	analyticsOpts := service.AnalyticsServiceOptions{
		Repo:     repos.Analytics,
		CacheTTL: cfg.Complaints.AnalyticsCacheTTL,
		Logger:   logger,
	}
	if repos.Cache != nil && cfg.Complaints.AnalyticsCacheTTL > 0 {
		analyticsOpts.Cache = repos.Cache
	}
	analytics := service.NewAnalyticsService(analyticsOpts)

	notifications := service.NewNotificationService(service.NotificationServiceOptions{
		Repo:   repos.Notifications,
		Logger: logger,
	})

	return ServiceContainer{
		Gate: gate,
		Auth: auth.Service,
		Complaints: service.NewComplaintService(service.ComplaintServiceOptions{
			Complaints:         repos.Complaints,
			Attachments:        repos.Attachments,
			Departments:        repos.Departments,
			Users:              repos.Users,
			Notifier:           notifications,
			Analytics:          analytics,
			AttachmentMaxBytes: cfg.Complaints.AttachmentMaxBytes,
			Logger:             logger,
		}),
		Users: service.NewUserService(service.UserServiceOptions{
			Repo:     repos.Users,
			Hasher:   hasher,
			Sessions: auth.Sessions,
			Logger:   logger,
		}),
		Departments: service.NewDepartmentService(service.DepartmentServiceOptions{
			Repo:  repos.Departments,
			Users: repos.Users,
		}),
		Notifications: notifications,
		Analytics:     analytics,
		SSOEnabled:    auth.SSO,
		Observability: obs,
		Cache:         repos.Cache,
	}, nil
}
