package server

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/database"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/monitoring"
	"taskflow/backend/internal/notify"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
)

// App holds every long-lived component of a running backend.
type App struct {
	Config *config.Config
	DB     *database.DatabasePool
	Store  cache.Store

	Tokens   *services.JWTTokenService
	Throttle *services.LoginThrottle
	Auth     *services.AuthServiceImpl
	Users    *services.UserServiceImpl
	Projects *services.ProjectServiceImpl
	Tasks    *services.TaskServiceImpl
	Comments *services.CommentServiceImpl

	Monitor     *monitoring.Monitor
	RateLimiter *middleware.RateLimiter
}

// NewStore returns the Redis store when Redis is enabled and the in-process
// store otherwise.
func NewStore(cfg *config.Config) cache.Store {
	if !cfg.Redis.Enabled {
		log.Printf("Redis disabled; token blacklist and lockout state are kept in memory")
		return cache.NewMemoryStore()
	}

	cacheConfig := cache.DefaultCacheConfig()
	cacheConfig.Addr = cfg.GetRedisAddr()
	cacheConfig.Password = cfg.Redis.Password
	cacheConfig.DB = cfg.Redis.DB
	cacheConfig.PoolSize = cfg.Redis.PoolSize
	cacheConfig.MinIdleConns = cfg.Redis.MinIdleConns
	cacheConfig.MaxRetries = cfg.Redis.MaxRetries
	cacheConfig.DialTimeout = cfg.Redis.DialTimeout
	cacheConfig.ReadTimeout = cfg.Redis.ReadTimeout
	cacheConfig.WriteTimeout = cfg.Redis.WriteTimeout

	store := cache.NewRedisStore(cacheConfig)
	if err := store.Health(context.Background()); err != nil {
		log.Printf("Redis at %s is not reachable yet: %v", cacheConfig.Addr, err)
	}
	return store
}

// NewApp connects to the database and the expiring store and wires the
// services.
func NewApp(cfg *config.Config) (*App, error) {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return Assemble(cfg, pool, NewStore(cfg)), nil
}

// Assemble wires services over an open pool and store.
func Assemble(cfg *config.Config, pool *database.DatabasePool, store cache.Store) *App {
	users := repositories.NewUserRepository(pool.DB)
	projects := repositories.NewProjectRepository(pool.DB)
	tasks := repositories.NewTaskRepository(pool.DB)
	comments := repositories.NewCommentRepository(pool.DB)

	hasher := services.NewBcryptHasher(cfg.Auth.BCryptCost)

	app := &App{
		Config:   cfg,
		DB:       pool,
		Store:    store,
		Tokens:   services.NewTokenService(cfg.Auth, store),
		Throttle: services.NewLoginThrottle(store, cfg.Lockout),
		Users:    services.NewUserService(users, projects, tasks, comments, hasher),
		Projects: services.NewProjectService(projects, users, tasks),
		Tasks:    services.NewTaskService(tasks, projects, users, comments),
		Comments: services.NewCommentService(comments, tasks),
		Monitor:  monitoring.NewMonitor(),
	}
	app.Auth = services.NewAuthService(users, hasher, app.Tokens, app.Throttle, notify.NewMailer(cfg.Mail))

	if cfg.RateLimit.Enabled {
		app.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	app.Monitor.RegisterHealthCheck("database", pool.HealthContext)
	app.Monitor.RegisterHealthCheck("store", store.Health)
	app.Monitor.RegisterStats("database", func() interface{} { return pool.Stats() })
	switch s := store.(type) {
	case *cache.RedisStore:
		app.Monitor.RegisterStats("store", func() interface{} { return s.Stats() })
	case *cache.MemoryStore:
		app.Monitor.RegisterStats("store", func() interface{} { return s.Metrics() })
	}
	return app
}

func (a *App) Close() error {
	var errs []error
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
