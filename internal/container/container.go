package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/themehub/themehub-api/app/db"
	"github.com/themehub/themehub-api/config"
	"github.com/themehub/themehub-api/internal/api/auth"
	"github.com/themehub/themehub-api/internal/api/catalog"
	"github.com/themehub/themehub-api/internal/api/library"
	"github.com/themehub/themehub-api/internal/api/user"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Pool is nil when the memory backend is selected.
	Pool *pgxpool.Pool

	AuthService    auth.AuthService
	AuthHandler    *auth.HandlerImpl
	CatalogHandler *catalog.HandlerImpl
	LibraryHandler *library.HandlerImpl
	UserHandler    *user.HandlerImpl

	Seeder *catalog.Seeder
}

// NewContainer wires repositories, services and handlers against the
// configured storage backend.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	var (
		authRepo    auth.AuthRepo
		catalogRepo catalog.CatalogRepo
		libraryRepo library.LibraryRepo
		userRepo    user.UserRepo
	)

	switch cfg.Repositories.Backend {
	case "memory":
		logger.Info("Using in-memory storage backend")
		memAuth := auth.NewMemAuthRepo()
		memCatalog := catalog.NewMemCatalogRepo()
		authRepo = memAuth
		catalogRepo = memCatalog
		libraryRepo = library.NewMemLibraryRepo(memCatalog)
		userRepo = memAuth

	case "postgres", "":
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			logger.Error("Failed to generate database config", slog.Any("error", err))
			return nil, err
		}

		pool, err := database.Init(dbConfig.ConnectionURL, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.Any("error", err))
			return nil, err
		}
		c.Pool = pool

		authRepo = auth.NewPostgresAuthRepo(pool, logger)
		catalogRepo = catalog.NewPostgresCatalogRepo(pool, logger)
		libraryRepo = library.NewPostgresLibraryRepo(pool, logger)
		userRepo = user.NewPostgresUserRepo(pool, logger)

	default:
		return nil, fmt.Errorf("unknown repository backend %q", cfg.Repositories.Backend)
	}

	authService := auth.NewAuthService(authRepo, cfg, logger)
	catalogService := catalog.NewCatalogService(catalogRepo, cfg, logger)
	libraryService := library.NewLibraryService(libraryRepo, catalogRepo, authRepo, logger)
	userService := user.NewUserService(userRepo, logger)

	c.AuthService = authService
	c.AuthHandler = auth.NewHandlerImpl(authService, cfg, logger)
	c.CatalogHandler = catalog.NewHandlerImpl(catalogService, logger)
	c.LibraryHandler = library.NewHandlerImpl(libraryService, logger)
	c.UserHandler = user.NewHandlerImpl(userService, logger)
	c.Seeder = catalog.NewSeeder(catalogRepo, logger)

	return c, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready. Always true for the memory
// backend.
func (c *Container) WaitForDB(ctx context.Context) bool {
	if c.Pool == nil {
		return true
	}
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations.
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
