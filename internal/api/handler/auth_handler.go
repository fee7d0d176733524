package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/metrics"
	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      middleware.SessionCookie
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie middleware.SessionCookie, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

type logoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

type checkResponse struct {
	Authenticated bool `json:"authenticated"`
	IsGuest       bool `json:"is_guest"`
}

// Login authenticates a registered user and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_request").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_request").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := h.authService.Login(c.Request().Context(), ctxSession(c), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			metrics.LoginsTotal.WithLabelValues("invalid_request").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			h.log.Info().Str("remote_ip", c.RealIP()).Msg("login failed")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.cookie.Set(c, sess)
	username := ""
	if reg, ok := domain.AsRegistered(sess.Principal); ok {
		username = reg.Username
	}
	return c.JSON(http.StatusOK, loginResponse{Authenticated: true, Username: username})
}

// Logout ends the current session. Calling it without a session succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200   {object}  logoutResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.SessionIDFrom(c)); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.JSON(http.StatusOK, logoutResponse{LoggedOut: true})
}

// Check reports whether the caller holds an authenticated session.
//
// @Summary      Session status
// @Tags         auth
// @Produce      json
// @Success      200   {object}  checkResponse
// @Router       /auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	sess := ctxSession(c)
	if sess == nil || !sess.Authenticated {
		return c.JSON(http.StatusOK, checkResponse{})
	}
	return c.JSON(http.StatusOK, checkResponse{Authenticated: true, IsGuest: sess.IsGuest})
}
