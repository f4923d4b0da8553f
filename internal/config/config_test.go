package config

import (
	"os"
	"testing"
	"time"
)

var managedEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_LOG_LEVEL",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "BCRYPT_COST",
	"LOCKOUT_MAX_FAILED_ATTEMPTS", "LOCKOUT_DURATION", "LOCKOUT_ATTEMPTS_TTL",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"CORS_ALLOWED_ORIGINS", "CORS_MAX_AGE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_SENDER",
}

// withEnv clears every variable the loader reads and applies vars for the
// duration of the test.
func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range managedEnvVars {
		k := k
		if old, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	withEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.Name != "taskflow" {
		t.Errorf("Expected default DB name 'taskflow', got %s", config.Database.Name)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if !config.Redis.Enabled {
		t.Error("Expected Redis to be enabled by default")
	}

	if config.Redis.PoolSize != 10 {
		t.Errorf("Expected default Redis pool size 10, got %d", config.Redis.PoolSize)
	}

	if config.Auth.AccessTokenTTL != 24*time.Hour {
		t.Errorf("Expected default access token TTL 24h, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("Expected default refresh token TTL 168h, got %v", config.Auth.RefreshTokenTTL)
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Lockout.MaxFailedAttempts != 5 {
		t.Errorf("Expected default lockout threshold 5, got %d", config.Lockout.MaxFailedAttempts)
	}

	if config.Lockout.LockDuration != 30*time.Minute {
		t.Errorf("Expected default lock duration 30m, got %v", config.Lockout.LockDuration)
	}

	if config.Lockout.AttemptsTTL != 24*time.Hour {
		t.Errorf("Expected default attempts TTL 24h, got %v", config.Lockout.AttemptsTTL)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if len(config.CORS.AllowedOrigins) != 1 || config.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("Expected wildcard CORS origin by default, got %v", config.CORS.AllowedOrigins)
	}

	if config.Mail.Host != "" {
		t.Errorf("Expected SMTP to be unset by default, got %s", config.Mail.Host)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	withEnv(t, map[string]string{
		"HOST":                        "0.0.0.0",
		"PORT":                        "9000",
		"ENVIRONMENT":                 "production",
		"DB_HOST":                     "db.example.com",
		"DB_PASSWORD":                 "secure_password",
		"DB_MAX_OPEN_CONNS":           "50",
		"REDIS_HOST":                  "redis.example.com",
		"REDIS_DB":                    "1",
		"JWT_SECRET":                  "super-secret-key",
		"RATE_LIMIT_ENABLED":          "false",
		"ACCESS_TOKEN_TTL":            "30m",
		"REFRESH_TOKEN_TTL":           "720h",
		"LOCKOUT_MAX_FAILED_ATTEMPTS": "3",
		"LOCKOUT_DURATION":            "1h",
		"CORS_ALLOWED_ORIGINS":        "https://app.example.com, https://admin.example.com",
		"SMTP_HOST":                   "smtp.example.com",
		"SMTP_PORT":                   "2525",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.GetServerAddr() != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got %s", config.GetServerAddr())
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.DB != 1 {
		t.Errorf("Expected Redis DB 1, got %d", config.Redis.DB)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected access token TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Auth.RefreshTokenTTL != 720*time.Hour {
		t.Errorf("Expected refresh token TTL 720h, got %v", config.Auth.RefreshTokenTTL)
	}

	if config.Lockout.MaxFailedAttempts != 3 {
		t.Errorf("Expected lockout threshold 3, got %d", config.Lockout.MaxFailedAttempts)
	}

	if config.Lockout.LockDuration != time.Hour {
		t.Errorf("Expected lock duration 1h, got %v", config.Lockout.LockDuration)
	}

	if len(config.CORS.AllowedOrigins) != 2 || config.CORS.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("Expected two trimmed CORS origins, got %v", config.CORS.AllowedOrigins)
	}

	if config.Mail.Port != 2525 {
		t.Errorf("Expected SMTP port 2525, got %d", config.Mail.Port)
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for missing database password in production")
	}

	if err.Error() != "database password is required in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_ProductionJWTValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "secure-db-password",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for default JWT secret in production")
	}

	if err.Error() != "JWT secret must be set in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_SQLiteInProductionNeedsNoPassword(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT":    "production",
		"JWT_SECRET":     "secure-jwt-secret",
		"DB_DRIVER":      "sqlite",
		"DB_SQLITE_PATH": "/var/lib/taskflow/data.db",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.GetDatabaseDSN() != "/var/lib/taskflow/data.db" {
		t.Errorf("Expected sqlite path as DSN, got %s", config.GetDatabaseDSN())
	}
}

func TestConfigValidation_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		hasError bool
		errorMsg string
	}{
		{
			name: "Production with all required fields",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"DB_PASSWORD": "secure-password",
				"JWT_SECRET":  "secure-jwt-secret",
			},
		},
		{
			name: "Staging environment (not production)",
			envVars: map[string]string{
				"ENVIRONMENT": "staging",
			},
		},
		{
			name: "Unknown database driver",
			envVars: map[string]string{
				"DB_DRIVER": "mysql",
			},
			hasError: true,
			errorMsg: `unsupported database driver "mysql"`,
		},
		{
			name: "Zero lockout threshold",
			envVars: map[string]string{
				"LOCKOUT_MAX_FAILED_ATTEMPTS": "0",
			},
			hasError: true,
			errorMsg: "lockout threshold must be at least 1, got 0",
		},
		{
			name: "Negative access token TTL",
			envVars: map[string]string{
				"ACCESS_TOKEN_TTL": "-1h",
			},
			hasError: true,
			errorMsg: "token TTLs must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.envVars)

			config, err := LoadConfig()

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				} else if err.Error() != tt.errorMsg {
					t.Errorf("Expected error '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
			if config == nil {
				t.Error("Expected config to be loaded")
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	if actual := config.GetDatabaseDSN(); actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}
}

func TestConfig_GetRedisAddr(t *testing.T) {
	config := &Config{Redis: RedisConfig{Host: "redis.example.com", Port: "6380"}}

	if actual := config.GetRedisAddr(); actual != "redis.example.com:6380" {
		t.Errorf("Expected Redis addr 'redis.example.com:6380', got '%s'", actual)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{Server: ServerConfig{Environment: test.environment}}

		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"

	if result := getEnvAsInt(key, 42); result != 42 {
		t.Errorf("Expected default value 42, got %d", result)
	}

	t.Setenv(key, "100")
	if result := getEnvAsInt(key, 42); result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	t.Setenv(key, "not-a-number")
	if result := getEnvAsInt(key, 42); result != 42 {
		t.Errorf("Expected default value 42 for invalid int, got %d", result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", true},
	}

	for _, tc := range testCases {
		t.Setenv(key, tc.value)
		if result := getEnvAsBool(key, true); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	t.Setenv(key, "5m")
	if result := getEnvAsDuration(key, time.Second); result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	t.Setenv(key, "not-a-duration")
	if result := getEnvAsDuration(key, time.Second); result != time.Second {
		t.Errorf("Expected default value 1s for invalid duration, got %v", result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"

	t.Setenv(key, " , ")
	if result := getEnvAsList(key, []string{"fallback"}); len(result) != 1 || result[0] != "fallback" {
		t.Errorf("Expected fallback for blank list, got %v", result)
	}

	t.Setenv(key, "a,b ,c")
	if result := getEnvAsList(key, nil); len(result) != 3 || result[1] != "b" {
		t.Errorf("Expected [a b c], got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	os.Setenv("ENVIRONMENT", "development")
	defer os.Unsetenv("ENVIRONMENT")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
