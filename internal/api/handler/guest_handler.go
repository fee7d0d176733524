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

type GuestHandler struct {
	guestService ports.GuestService
	cookie       middleware.SessionCookie
	log          zerolog.Logger
}

func NewGuestHandler(guestService ports.GuestService, cookie middleware.SessionCookie, log zerolog.Logger) *GuestHandler {
	return &GuestHandler{guestService: guestService, cookie: cookie, log: log}
}

type generateGuestRequest struct {
	RoomID string `json:"room_id"`
}

type generateGuestResponse struct {
	GuestToken string `json:"guest_token"`
}

type validateGuestRequest struct {
	Token string `json:"token" validate:"required,printascii"`
}

type validateGuestResponse struct {
	Validated bool   `json:"validated"`
	IsGuest   bool   `json:"is_guest"`
	RoomID    string `json:"room_id"`
}

// Generate mints a guest token for a room on behalf of a logged-in user.
//
// @Summary      Generate a guest token
// @Tags         guest
// @Accept       json
// @Produce      json
// @Param        body  body      generateGuestRequest  true  "Target room"
// @Success      201   {object}  generateGuestResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/guest/generate [post]
func (h *GuestHandler) Generate(c echo.Context) error {
	var req generateGuestRequest
	// An unreadable body reads as a missing room; the caller check still
	// runs first inside the service.
	if err := c.Bind(&req); err != nil {
		req.RoomID = ""
	}

	token, err := h.guestService.IssueGuestToken(c.Request().Context(), ctxSession(c), req.RoomID)
	if err != nil {
		var status int
		outcome := "error"
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			status, outcome = http.StatusForbidden, "unauthorized"
		case errors.Is(err, domain.ErrMissingRoom):
			status, outcome = http.StatusBadRequest, "missing_room"
		case errors.Is(err, domain.ErrRoomNotFound):
			status, outcome = http.StatusNotFound, "room_not_found"
		}
		metrics.GuestTokensIssuedTotal.WithLabelValues(outcome).Inc()
		if status == 0 {
			return err
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	metrics.GuestTokensIssuedTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, generateGuestResponse{GuestToken: token})
}

// Validate exchanges a guest token for a guest session.
//
// @Summary      Validate a guest token
// @Tags         guest
// @Accept       json
// @Produce      json
// @Param        body  body      validateGuestRequest  true  "Guest token"
// @Success      200   {object}  validateGuestResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/guest/validate [post]
func (h *GuestHandler) Validate(c echo.Context) error {
	var req validateGuestRequest
	if err := c.Bind(&req); err != nil {
		metrics.GuestValidationsTotal.WithLabelValues("invalid_request").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.GuestValidationsTotal.WithLabelValues("invalid_request").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := h.guestService.ValidateAndBind(c.Request().Context(), ctxSession(c), req.Token)
	if err != nil {
		var status int
		outcome := "error"
		switch {
		case errors.Is(err, domain.ErrValidation):
			status, outcome = http.StatusBadRequest, "invalid_request"
		case errors.Is(err, domain.ErrInvalidToken):
			status, outcome = http.StatusUnauthorized, "invalid_token"
		case errors.Is(err, domain.ErrNotAGuestToken):
			status, outcome = http.StatusForbidden, "not_guest"
		}
		metrics.GuestValidationsTotal.WithLabelValues(outcome).Inc()
		if status == 0 {
			return err
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	metrics.GuestValidationsTotal.WithLabelValues("success").Inc()
	h.cookie.Set(c, sess)
	room, _ := sess.GuestRoom()
	return c.JSON(http.StatusOK, validateGuestResponse{Validated: true, IsGuest: true, RoomID: room})
}
