package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/sales-assistant/internal/adapter/handler"
	"github.com/johnquangdev/sales-assistant/internal/adapter/repository"
	"github.com/johnquangdev/sales-assistant/internal/adapter/view"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/external/backend"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/external/firebase"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/external/oauth"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/storage"
	"github.com/johnquangdev/sales-assistant/internal/usecase/auth"
	"github.com/johnquangdev/sales-assistant/internal/usecase/crm"
	"github.com/johnquangdev/sales-assistant/internal/usecase/guard"
	"github.com/johnquangdev/sales-assistant/internal/usecase/profile"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
	"github.com/johnquangdev/sales-assistant/pkg/config"
	"github.com/johnquangdev/sales-assistant/pkg/jwt"
	"github.com/johnquangdev/sales-assistant/pkg/tracing"
	pkgvalidator "github.com/johnquangdev/sales-assistant/pkg/validator"
)

const serviceName = "sales-assistant"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing := tracing.Init(serviceName, cfg.Server.Environment)

	ctx := context.Background()
	health := map[string]handler.HealthCheck{}

	log.Println("🔧 Initializing dependencies...")

	// Session store: Redis when configured, in-memory otherwise
	var kv cache.Store
	if cfg.Redis.Host != "" {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(ctx, cfg, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		kv = redisStore
		health["redis"] = redisStore.Ping
	} else {
		log.Println("⚠️  REDIS_HOST not set, sessions are kept in memory")
		kv = cache.NewMemoryStore()
	}
	defer kv.Close()

	// Profile document store
	var docs repositories.ProfileRepository
	if cfg.Database.Host != "" {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or run migrations in CI/CD.")
			}
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		docs = repository.NewProfileRepository(db)
		health["database"] = pingDB(db)
	} else {
		log.Println("⚠️  DB_HOST not set, profile fallback store disabled")
	}

	// Avatar storage
	var avatars profile.AvatarStorage
	if cfg.Storage.Endpoint != "" {
		log.Println("🗄️  Connecting to object storage...")
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		avatars = minioClient
		health["storage"] = minioClient.Ping
	} else {
		log.Println("⚠️  STORAGE_ENDPOINT not set, avatar uploads disabled")
	}

	// Identity provider
	log.Println("🔐 Initializing identity provider...")
	idp := firebase.NewClient(&cfg.Firebase)
	verifier := firebase.NewVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.SkipTokenVerify)
	if cfg.Firebase.SkipTokenVerify {
		log.Println("⚠️  ID token signature verification is DISABLED")
	}

	var google auth.GoogleOAuth
	if cfg.OAuth.Google.ClientID != "" {
		google = oauth.NewGoogleProvider(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURL,
		)
	} else {
		log.Println("⚠️  GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}
	stateManager := oauth.NewStateManager(kv)

	backendClient := backend.NewClient(&cfg.Backend)

	// Sessions
	log.Println("⚙️  Initializing services...")
	resolver := session.NewResolver(repository.NewSessionRepository(kv), cfg.Session.TTL, logger)
	convo := session.NewConversationContext(repository.NewConversationContextRepository(kv), cfg.Session.TTL, logger)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go resolver.RunExpirySweep(sweepCtx, cfg.Session.SweepInterval)

	authService := auth.NewService(idp, verifier, google, stateManager, resolver, convo, cfg.Server.PublicURL, logger)
	routeGuard := guard.NewGuard(authService, cfg.Guard, logger)

	registry := crm.NewRegistry(resolver, func(sessionID uuid.UUID) repositories.CRMStore {
		return backend.NewCRMStore(backendClient, authService.TokenSource(sessionID))
	}, convo, logger)

	profileService := profile.NewService(backendClient, docs, avatars, logger)

	// HTTP layer
	jwtManager := jwt.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	cookies := httpmw.NewCookies(jwtManager, cfg.Session)
	authMW := httpmw.NewAuthMiddleware(cookies, resolver, logger)

	assistant, err := handler.NewAssistant(cfg.Backend.BaseURL, authService, logger)
	if err != nil {
		log.Fatalf("Failed to initialize assistant proxy: %v", err)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.Renderer = renderer
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))
	e.Use(otelecho.Middleware(serviceName))

	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, handler.RouterDeps{
		Auth:      authMW,
		Guard:     routeGuard,
		Roles:     backendClient,
		Tokens:    authService,
		Pages:     handler.NewPages(authService, profileService, cookies, logger),
		AuthAPI:   handler.NewAuth(authService, resolver, cookies, logger),
		Profile:   handler.NewProfile(profileService, authService, logger),
		CRM:       handler.NewCRM(registry, convo, backendClient, authService, logger),
		Assistant: assistant,
		Health:    health,
	})
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown.failed", zap.Error(err))
	}
	stopSweep()
	registry.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing.shutdown.failed", zap.Error(err))
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func pingDB(db *gorm.DB) handler.HealthCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
