package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

var testAuthConfig = config.AuthConfig{
	JWTSecret:       "test-secret-key-for-unit-tests",
	Issuer:          "taskflow-test",
	AccessTokenTTL:  time.Hour,
	RefreshTokenTTL: 24 * time.Hour,
}

var testLockoutConfig = config.LockoutConfig{
	MaxFailedAttempts: 5,
	LockDuration:      30 * time.Minute,
	AttemptsTTL:       24 * time.Hour,
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	to, username, password string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendPasswordReset(ctx context.Context, to, username, temporaryPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, username: username, password: temporaryPassword})
	return nil
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	clock    *testClock
	store    cache.Store
	hasher   services.PasswordHasher
	tokens   *services.JWTTokenService
	throttle *services.LoginThrottle
	mailer   *recordingMailer

	userRepo    *repositories.GormUserRepository
	projectRepo *repositories.GormProjectRepository
	taskRepo    *repositories.GormTaskRepository
	commentRepo *repositories.GormCommentRepository

	auth     *services.AuthServiceImpl
	users    *services.UserServiceImpl
	projects *services.ProjectServiceImpl
	tasks    *services.TaskServiceImpl
	comments *services.CommentServiceImpl
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newFixture wires every service over an in-memory database. The expiring
// store defaults to an in-process store driven by the fixture clock.
func newFixture(t *testing.T, store ...cache.Store) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		db:     newTestDB(t),
		clock:  newTestClock(),
		hasher: services.NewBcryptHasher(bcrypt.MinCost),
		mailer: &recordingMailer{},
	}
	if len(store) > 0 {
		f.store = store[0]
	} else {
		f.store = cache.NewMemoryStoreWithClock(f.clock.Now)
	}

	f.userRepo = repositories.NewUserRepository(f.db)
	f.projectRepo = repositories.NewProjectRepository(f.db)
	f.taskRepo = repositories.NewTaskRepository(f.db)
	f.commentRepo = repositories.NewCommentRepository(f.db)

	f.tokens = services.NewTokenServiceWithClock(testAuthConfig, f.store, f.clock.Now)
	f.throttle = services.NewLoginThrottle(f.store, testLockoutConfig)

	f.auth = services.NewAuthService(f.userRepo, f.hasher, f.tokens, f.throttle, f.mailer)
	f.users = services.NewUserService(f.userRepo, f.projectRepo, f.taskRepo, f.commentRepo, f.hasher)
	f.projects = services.NewProjectService(f.projectRepo, f.userRepo, f.taskRepo)
	f.tasks = services.NewTaskService(f.taskRepo, f.projectRepo, f.userRepo, f.commentRepo)
	f.comments = services.NewCommentService(f.commentRepo, f.taskRepo)
	return f
}

func (f *fixture) createUser(t *testing.T, username string, roles ...string) *models.User {
	t.Helper()
	resp, err := f.users.Create(f.ctx, services.CreateUserRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  testPassword,
		FirstName: username,
		LastName:  "Tester",
		Roles:     roles,
	})
	require.NoError(t, err)

	user, err := f.userRepo.FindByID(f.ctx, resp.ID)
	require.NoError(t, err)
	return user
}
