package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/usecase/guard"
	"github.com/johnquangdev/sales-assistant/pkg/config"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Router holds all handlers
type Router struct {
	cfg        *config.Config
	auth       *httpmw.AuthMiddleware
	guard      *guard.Guard
	roles      httpmw.RoleLookup
	tokens     httpmw.BearerSource
	pages      *Pages
	authAPI    *Auth
	profile    *Profile
	crm        *CRM
	assistant  *Assistant
	healthDeps map[string]HealthCheck
}

// RouterDeps groups the handlers and middleware the router wires together
type RouterDeps struct {
	Auth      *httpmw.AuthMiddleware
	Guard     *guard.Guard
	Roles     httpmw.RoleLookup
	Tokens    httpmw.BearerSource
	Pages     *Pages
	AuthAPI   *Auth
	Profile   *Profile
	CRM       *CRM
	Assistant *Assistant
	Health    map[string]HealthCheck
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, deps RouterDeps) *Router {
	return &Router{
		cfg:        cfg,
		auth:       deps.Auth,
		guard:      deps.Guard,
		roles:      deps.Roles,
		tokens:     deps.Tokens,
		pages:      deps.Pages,
		authAPI:    deps.AuthAPI,
		profile:    deps.Profile,
		crm:        deps.CRM,
		assistant:  deps.Assistant,
		healthDeps: deps.Health,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	site := e.Group("", rt.auth.LoadSession())
	rt.setupPageRoutes(site)

	v1 := e.Group("/v1", rt.auth.LoadSession())
	rt.setupAuthRoutes(v1)
	rt.setupProfileRoutes(v1)
	rt.setupCRMRoutes(v1)
	rt.setupAssistantRoutes(v1)
}

// setupPageRoutes configures the server-rendered website
func (rt *Router) setupPageRoutes(g *echo.Group) {
	verified := rt.auth.RouteGuard(rt.guard, guard.Requirement{Verified: true}, httpmw.ModeHTML)
	signedIn := rt.auth.RouteGuard(rt.guard, guard.Requirement{}, httpmw.ModeHTML)

	g.GET("/", rt.pages.Home)
	g.GET("/pricing", rt.pages.Pricing)
	g.GET("/login", rt.pages.LoginPage)
	g.POST("/login", rt.pages.Login)
	g.GET("/signup", rt.pages.SignupPage)
	g.POST("/signup", rt.pages.Signup)
	g.POST("/logout", rt.pages.Logout)
	g.GET("/auth/google/login", rt.pages.GoogleLogin)
	g.GET("/auth/google/callback", rt.pages.GoogleCallback)

	g.GET("/onboarding", rt.pages.Onboarding, signedIn)
	g.POST("/verification/resend", rt.pages.ResendVerification, signedIn)
	g.GET("/dashboard", rt.pages.Dashboard, verified)
	g.GET("/profile", rt.pages.Profile, verified)
	g.GET("/admin", rt.pages.Admin, verified,
		rt.auth.RequireRole(rt.roles, rt.tokens, entities.RoleAdmin, httpmw.ModeHTML))
}

// setupAuthRoutes configures authentication routes
func (rt *Router) setupAuthRoutes(g *echo.Group) {
	authGroup := g.Group("/auth")

	authGroup.GET("/session", rt.authAPI.Session)
	authGroup.POST("/session", rt.authAPI.Exchange)
	authGroup.GET("/session/events", rt.authAPI.Events)
	authGroup.POST("/verification/resend", rt.authAPI.ResendVerification,
		rt.auth.RouteGuard(rt.guard, guard.Requirement{}, httpmw.ModeJSON))
}

// setupProfileRoutes configures profile routes
func (rt *Router) setupProfileRoutes(g *echo.Group) {
	profileGroup := g.Group("/profile", rt.verifiedJSON())

	profileGroup.GET("", rt.profile.Get)
	profileGroup.PUT("", rt.profile.Update)
	profileGroup.POST("/avatar", rt.profile.UploadAvatar)
}

// setupCRMRoutes configures the CRM panel routes
func (rt *Router) setupCRMRoutes(g *echo.Group) {
	crmGroup := g.Group("/crm", rt.verifiedJSON())

	crmGroup.GET("/conversations/:id", rt.crm.Get)
	crmGroup.DELETE("/conversations/:id", rt.crm.Delete)
	crmGroup.POST("/conversations/:id/observe", rt.crm.Observe)
	crmGroup.POST("/conversations/:id/save", rt.crm.Save)
	crmGroup.GET("/context", rt.crm.Context)
	crmGroup.DELETE("/context", rt.crm.ResetContext)
	crmGroup.POST("/sync", rt.crm.Sync)
}

// setupAssistantRoutes proxies the voice and AI endpoints to the backend
func (rt *Router) setupAssistantRoutes(g *echo.Group) {
	if rt.assistant == nil {
		g.Any("/assistant/*", rt.notImplemented)
		return
	}
	g.Any("/assistant/*", echo.NotFoundHandler,
		rt.verifiedJSON(),
		rt.assistant.InjectBearer(),
		rt.assistant.Proxy("/v1/assistant"),
	)
}

func (rt *Router) verifiedJSON() echo.MiddlewareFunc {
	return rt.auth.RouteGuard(rt.guard, guard.Requirement{Verified: true}, httpmw.ModeJSON)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not configured",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status with each optional dependency's state
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(rt.healthDeps))
	for name, check := range rt.healthDeps {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":       status,
		"environment":  rt.cfg.Server.Environment,
		"dependencies": deps,
	})
}
