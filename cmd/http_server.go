package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/group"
	grouppg "github.com/frahmantamala/identity-service/internal/group/postgres"
	"github.com/frahmantamala/identity-service/internal/rbac"
	rbacpg "github.com/frahmantamala/identity-service/internal/rbac/postgres"
	"github.com/frahmantamala/identity-service/internal/transport/rest"
	"github.com/frahmantamala/identity-service/internal/user"
	userpg "github.com/frahmantamala/identity-service/internal/user/postgres"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Observability.Logging.Format == "json" {
		logger.Init("production")
	} else {
		logger.Init("development")
	}
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(config.Database, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	router := chi.NewRouter()

	userRepo := userpg.NewRepository(gdb)
	roleRepo := rbacpg.NewRoleRepository(gdb)
	permRepo := rbacpg.NewPermissionRepository(gdb)
	groupRepo := grouppg.NewRepository(gdb)

	sec := config.Security
	hasher := auth.NewPasswordHasher(sec.BCryptCost)
	tokens := auth.NewTokenManager(sec.JWTSecret, sec.AccessTokenDuration, sec.RefreshTokenDuration)
	lockout := auth.NewLockout(userRepo, sec.MaxLoginAttempts, sec.LockoutDuration, log)
	strategies := auth.NewStrategySet(userRepo, hasher, lockout, tokens)
	setPasswordTTL := time.Duration(sec.SetPasswordTokenMinutes) * time.Minute

	authService := auth.NewService(userRepo, hasher, tokens, strategies, nil, setPasswordTTL, log)
	authorization := rbac.NewAuthorizationService(userRepo, roleRepo, permRepo, log)
	security := auth.NewSecurity(authService.Context(), authorization)

	userService := user.NewService(userRepo, roleRepo, permRepo, log)
	adminService := rbac.NewAdminService(roleRepo, permRepo, log)
	groupService := group.NewService(groupRepo, userRepo, permRepo, log)

	authHandler := auth.NewHandler(authService, security)
	userHandler := user.NewHandler(userService, authorization)
	rbacHandler := rbac.NewHandler(adminService)
	groupHandler := group.NewHandler(groupService)

	rest.RegisterAllRoutes(router, db.DB, authHandler, security, userHandler, rbacHandler, groupHandler, log)

	return &Dependencies{
		Config: config,
		DB:     db,
		Router: router,
		Logger: log,
	}, nil
}

// initDB opens the database/sql connection pool used for health checks
// and migrations.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := "pgx"
	if cfg.Driver == "sqlite" {
		driver = "sqlite3"
	}

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open connection so both
// share one pool.
func initGorm(cfg internal.DatabaseConfig, db *sqlx.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.Driver == "sqlite" {
		dialector = gormsqlite.Dialector{Conn: db.DB}
	} else {
		dialector = gormpostgres.New(gormpostgres.Config{Conn: db.DB})
	}
	return gorm.Open(dialector, &gorm.Config{})
}
