package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	authDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/auth"
	"github.com/johnquangdev/sales-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/sales-assistant/internal/adapter/view"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-assistant/internal/usecase/auth"
	"github.com/johnquangdev/sales-assistant/internal/usecase/profile"
	"github.com/johnquangdev/sales-assistant/pkg/validator"
)

// ProfileReader loads the profile shown on the profile page
type ProfileReader interface {
	Get(ctx context.Context, sess *entities.Session) (*profile.View, error)
}

const afterSignInPath = "/dashboard"

// Pages serves the server-rendered website and the sign-in forms
type Pages struct {
	auth     AuthService
	profiles ProfileReader
	cookies  *httpmw.Cookies
	logger   *zap.Logger
}

// NewPages creates a new pages handler
func NewPages(auth AuthService, profiles ProfileReader, cookies *httpmw.Cookies, logger *zap.Logger) *Pages {
	return &Pages{
		auth:     auth,
		profiles: profiles,
		cookies:  cookies,
		logger:   logger,
	}
}

// Home renders the landing page
func (h *Pages) Home(c echo.Context) error {
	return h.render(c, http.StatusOK, "home", h.page(c, ""))
}

// Pricing renders the pricing page
func (h *Pages) Pricing(c echo.Context) error {
	return h.render(c, http.StatusOK, "pricing", h.page(c, "Pricing"))
}

// LoginPage renders the sign-in form with any flash left by the route guard
// GET /login
func (h *Pages) LoginPage(c echo.Context) error {
	p := h.page(c, "Sign in")
	if p.Flash != nil {
		// the login page renders the flash itself
		p.Notice = ""
		p.Email = p.Flash.Email
	}
	return h.render(c, http.StatusOK, "login", p)
}

// Login handles the sign-in form
// POST /login
func (h *Pages) Login(c echo.Context) error {
	p := h.page(c, "Sign in")

	var req authDTO.SignInRequest
	if err := c.Bind(&req); err != nil {
		p.Error = "Please enter your email and password."
		return h.render(c, http.StatusBadRequest, "login", p)
	}
	p.Email = req.Email
	if err := c.Validate(&req); err != nil {
		p.Error = validator.Message(err)
		return h.render(c, http.StatusBadRequest, "login", p)
	}

	sess, err := h.auth.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("auth.signin.failed", zap.String("email", req.Email), zap.Error(err))
		p.Error = auth.UserMessage(err)
		return h.render(c, toAppError(err).HTTPCode, "login", p)
	}

	return h.signedIn(c, sess, afterSignInPath)
}

// SignupPage renders the sign-up form
// GET /signup
func (h *Pages) SignupPage(c echo.Context) error {
	return h.render(c, http.StatusOK, "signup", h.page(c, "Create account"))
}

// Signup creates an account and signs the user in
// POST /signup
func (h *Pages) Signup(c echo.Context) error {
	p := h.page(c, "Create account")

	var req authDTO.SignUpRequest
	if err := c.Bind(&req); err != nil {
		p.Error = "Please fill in the form."
		return h.render(c, http.StatusBadRequest, "signup", p)
	}
	p.Email, p.DisplayName = req.Email, req.DisplayName
	if err := c.Validate(&req); err != nil {
		p.Error = validator.Message(err)
		return h.render(c, http.StatusBadRequest, "signup", p)
	}

	sess, err := h.auth.SignUp(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.logger.Info("auth.signup.failed", zap.String("email", req.Email), zap.Error(err))
		p.Error = auth.UserMessage(err)
		return h.render(c, toAppError(err).HTTPCode, "signup", p)
	}

	return h.signedIn(c, sess, afterSignInPath)
}

// Logout ends the web session
// POST /logout
func (h *Pages) Logout(c echo.Context) error {
	if id, ok := httpmw.GetSessionIDFromContext(c); ok {
		if err := h.auth.SignOut(c.Request().Context(), id); err != nil {
			h.logger.Error("auth.signout.failed", zap.String("session_id", id.String()), zap.Error(err))
		}
	}
	h.cookies.ClearSession(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

// GoogleLogin starts Google sign-in
// GET /auth/google/login
func (h *Pages) GoogleLogin(c echo.Context) error {
	url, err := h.auth.GoogleAuthURL(c.Request().Context())
	if err != nil {
		h.logger.Error("auth.google.url_failed", zap.Error(err))
		return h.redirectWithMessage(c, "/login", "Google sign-in is not available right now.")
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes Google sign-in
// GET /auth/google/callback
func (h *Pages) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return h.redirectWithMessage(c, "/login", "Google sign-in was cancelled.")
	}

	sess, err := h.auth.GoogleCallback(c.Request().Context(), state, code)
	if err != nil {
		h.logger.Warn("auth.google.callback_failed", zap.Error(err))
		return h.redirectWithMessage(c, "/login", auth.UserMessage(err))
	}

	return h.signedIn(c, sess, afterSignInPath)
}

// ResendVerification sends another verification email from the website
// POST /verification/resend
func (h *Pages) ResendVerification(c echo.Context) error {
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	if err := h.auth.ResendVerification(c.Request().Context(), sess.ID); err != nil {
		h.logger.Warn("auth.verification.resend_failed", zap.String("uid", sess.UID), zap.Error(err))
		return h.redirectWithMessage(c, "/onboarding", auth.UserMessage(err))
	}
	return h.redirectWithMessage(c, "/onboarding", "We sent a new verification link to "+sess.Email+".")
}

// Onboarding renders the post sign-up page. Requires a session only.
func (h *Pages) Onboarding(c echo.Context) error {
	return h.render(c, http.StatusOK, "onboarding", h.page(c, "Welcome"))
}

// Dashboard renders the assistant shell. Requires a verified session.
func (h *Pages) Dashboard(c echo.Context) error {
	return h.render(c, http.StatusOK, "dashboard", h.page(c, "Dashboard"))
}

// Profile renders the profile page. Requires a verified session.
func (h *Pages) Profile(c echo.Context) error {
	p := h.page(c, "Profile")
	sess, ok := httpmw.GetSessionFromContext(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	v, err := h.profiles.Get(c.Request().Context(), sess)
	if err != nil {
		h.logger.Error("profile.page.failed", zap.String("uid", sess.UID), zap.Error(err))
		p.Error = "We couldn't load your profile. Please try again."
		return h.render(c, http.StatusOK, "profile", p)
	}
	p.Data = presenter.ToProfileResponse(v)
	return h.render(c, http.StatusOK, "profile", p)
}

// Admin renders the admin page. Requires the admin role.
func (h *Pages) Admin(c echo.Context) error {
	p := h.page(c, "Admin")
	p.Data = c.Get("identity")
	return h.render(c, http.StatusOK, "admin", p)
}

func (h *Pages) page(c echo.Context, title string) view.Page {
	p := view.Page{Title: title, GoogleEnabled: h.auth.GoogleEnabled()}
	if sess, ok := httpmw.GetSessionFromContext(c); ok {
		p.User = sess.ToPublic()
	}
	if c.Request().Method == http.MethodGet {
		if f := h.cookies.PopFlash(c); f != nil {
			p.Flash = f
			p.Notice = f.Message
		}
	}
	return p
}

func (h *Pages) render(c echo.Context, status int, name string, p view.Page) error {
	if err := c.Render(status, name, p); err != nil {
		h.logger.Error("page.render.failed", zap.String("page", name), zap.Error(err))
		return err
	}
	return nil
}

func (h *Pages) signedIn(c echo.Context, sess *entities.Session, next string) error {
	if err := h.cookies.SetSession(c, sess); err != nil {
		h.logger.Error("auth.cookie.failed", zap.String("uid", sess.UID), zap.Error(err))
		return h.redirectWithMessage(c, "/login", auth.UserMessage(err))
	}
	return c.Redirect(http.StatusSeeOther, next)
}

func (h *Pages) redirectWithMessage(c echo.Context, to, message string) error {
	if err := h.cookies.SetFlash(c, &entities.Flash{Message: message}); err != nil {
		h.logger.Warn("page.flash.failed", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, to)
}
