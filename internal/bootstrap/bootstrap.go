package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	appAuth "github.com/changex/eduspace/internal/app/auth"
	"github.com/changex/eduspace/internal/app/controllers"
	"github.com/changex/eduspace/internal/app/migrations"
	"github.com/changex/eduspace/internal/app/repositories"
	"github.com/changex/eduspace/internal/app/routes"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/config"
	"github.com/changex/eduspace/internal/db"
	"github.com/changex/eduspace/internal/middleware"
	pkgAuth "github.com/changex/eduspace/internal/pkg/auth"
	"github.com/changex/eduspace/internal/pkg/events"
	"github.com/changex/eduspace/internal/pkg/logger"
	"github.com/changex/eduspace/internal/pkg/realtime"
	"github.com/changex/eduspace/internal/pkg/riskmodel"
)

// Dependencies holds all the wired application components.
type Dependencies struct {
	Repos        *repositories.Repositories
	Services     *services.Services
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Dispatcher   *events.AsyncDispatcher
	Hub          *realtime.Hub
	RiskRegistry *riskmodel.Registry

	AuthController       *controllers.AuthController
	EnrollmentController *controllers.EnrollmentController
	GradeController      *controllers.GradeController
	RiskController       *controllers.RiskController
	AnalyticsController  *controllers.AnalyticsController
	RealtimeController   *controllers.RealtimeController
	AuthMiddleware       *middleware.AuthMiddleware
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Format == "pretty",
	})

	return cfg, nil
}

// SetupDatabase opens the connection pool and applies pending migrations.
func SetupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrator := migrations.NewMigrator(database.Pool)
	if err := migrator.MigrateFromDirectory(ctx, migrationsPath); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return database.Pool, nil
}

// BuildDependencies wires repositories, services, controllers and middleware.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool) (*Dependencies, error) {
	repos := repositories.NewRepositories(dbPool)

	accessExp, err := time.ParseDuration(cfg.JWT.AccessTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: accessExp,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	authzService := appAuth.NewAuthorizationService(repos.UserRepository, repos.EnrollmentRepository)

	// Event fan-out: persisted notifications plus realtime pushes.
	dispatcher := events.NewAsyncDispatcher(256)
	dispatcher.Register(notificationHandler(repos.NotificationRepository))

	hub := realtime.NewHub(logger.WithComponent("realtime"))
	dispatcher.Register(hub.EventHandler())
	go hub.Run()

	riskRegistry := riskmodel.NewRegistry(cfg.Risk.ModelPath, riskmodel.NewFallback(cfg.Risk.FallbackScore))
	if err := riskRegistry.Load(); err != nil {
		return nil, fmt.Errorf("failed to load risk model: %w", err)
	}

	svc := &services.Services{
		Enrollment: services.NewEnrollmentService(repos.EnrollmentRepository, dispatcher, services.EnrollmentConfig{
			PassingGrade:                 cfg.Enrollment.PassingGrade,
			CheckPrerequisitesOnWaitlist: cfg.Enrollment.CheckPrerequisitesOnWaitlist,
		}),
		Grading:   services.NewGradingService(repos.GradeRepository, dispatcher),
		Risk:      services.NewRiskService(repos.RiskRepository, riskRegistry, riskmodel.NewFallback(cfg.Risk.FallbackScore)),
		Analytics: services.NewAnalyticsService(repos.AnalyticsRepository, cfg.Enrollment.PassingGrade, cfg.Analytics.ActivityWindowDays),
		Auth:      services.NewAuthService(repos.UserRepository, jwtService),
	}

	return &Dependencies{
		Repos:        repos,
		Services:     svc,
		JWTService:   jwtService,
		AuthzService: authzService,
		Dispatcher:   dispatcher,
		Hub:          hub,
		RiskRegistry: riskRegistry,

		AuthController:       controllers.NewAuthController(svc.Auth),
		EnrollmentController: controllers.NewEnrollmentController(svc.Enrollment, authzService),
		GradeController:      controllers.NewGradeController(svc.Grading),
		RiskController:       controllers.NewRiskController(svc.Risk, riskRegistry),
		AnalyticsController:  controllers.NewAnalyticsController(svc.Analytics),
		RealtimeController:   controllers.NewRealtimeController(hub),
		AuthMiddleware:       middleware.NewAuthMiddleware(svc.Auth, authzService),
	}, nil
}

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())

	routes.SetupRouter(
		router,
		deps.AuthController,
		deps.EnrollmentController,
		deps.GradeController,
		deps.RiskController,
		deps.AnalyticsController,
		deps.RealtimeController,
		deps.AuthMiddleware,
	)

	return router
}

// notificationHandler persists user-facing events as notification rows.
func notificationHandler(repo *repositories.NotificationRepository) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if event.UserID == 0 {
			return nil
		}

		var payload []byte
		if len(event.Payload) > 0 {
			data, err := json.Marshal(event.Payload)
			if err != nil {
				return err
			}
			payload = data
		}

		return repo.Create(ctx, event.UserID, event.Type, payload)
	})
}
