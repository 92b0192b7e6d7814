package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Backend  BackendConfig
	Session  SessionConfig
	Guard    GuardConfig
	OAuth    OAuthConfig
	Storage  StorageConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	PublicURL       string   `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds the profile document store configuration.
// An empty Host disables the fallback store.
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:""`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"sales_assistant"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"2"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration. An empty Host selects the in-memory store.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:""`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// FirebaseConfig holds identity provider configuration
type FirebaseConfig struct {
	APIKey             string `envconfig:"FIREBASE_API_KEY"`
	ProjectID          string `envconfig:"FIREBASE_PROJECT_ID"`
	IdentityBaseURL    string `envconfig:"FIREBASE_IDENTITY_BASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	SecureTokenBaseURL string `envconfig:"FIREBASE_SECURE_TOKEN_BASE_URL" default:"https://securetoken.googleapis.com/v1"`
	// VerifyContinueURL is where the verification email link lands after confirmation
	VerifyContinueURL string `envconfig:"FIREBASE_VERIFY_CONTINUE_URL" default:"http://localhost:8080/login"`
	SkipTokenVerify   bool   `envconfig:"FIREBASE_SKIP_TOKEN_VERIFY" default:"false"`
}

// BackendConfig holds the sales assistant backend API configuration
type BackendConfig struct {
	BaseURL string        `envconfig:"BACKEND_API_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"BACKEND_API_TIMEOUT" default:"15s"`
}

// SessionConfig holds web session cookie configuration
type SessionConfig struct {
	CookieName   string        `envconfig:"SESSION_COOKIE_NAME" default:"sa_session"`
	Secret       string        `envconfig:"SESSION_SECRET" default:"dev-session-secret-change-in-production"`
	TTL          time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SecureCookie bool          `envconfig:"SESSION_SECURE_COOKIE" default:"false"`
	// SweepInterval is how often observers of expired sessions are released
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// GuardConfig holds route guard configuration
type GuardConfig struct {
	// VerificationGracePeriod is how long after account creation the guard
	// reloads the identity record before treating the email as unverified.
	// The 30s default is a heuristic for the provider's eventual consistency
	// and should be revisited.
	VerificationGracePeriod time.Duration `envconfig:"GUARD_VERIFICATION_GRACE_PERIOD" default:"30s"`
	LoginPath               string        `envconfig:"GUARD_LOGIN_PATH" default:"/login"`
}

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	Google GoogleOAuthConfig
}

// GoogleOAuthConfig holds Google OAuth configuration. Google sign-in is
// disabled when ClientID is empty.
type GoogleOAuthConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" default:""`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/auth/google/callback"`
}

// StorageConfig holds avatar storage configuration. An empty Endpoint
// disables avatar uploads.
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:""`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"sales-assistant-avatars"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL" default:""`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Firebase.APIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required")
	}
	if c.Firebase.ProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.Guard.VerificationGracePeriod < 0 {
		return fmt.Errorf("GUARD_VERIFICATION_GRACE_PERIOD must not be negative")
	}
	if c.IsProduction() {
		if c.Session.Secret == "" || c.Session.Secret == "dev-session-secret-change-in-production" {
			return fmt.Errorf("SESSION_SECRET must be set in production")
		}
		if c.Firebase.SkipTokenVerify {
			return fmt.Errorf("FIREBASE_SKIP_TOKEN_VERIFY is not allowed in production")
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
