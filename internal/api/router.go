package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/videocall/room-access/docs"
	"github.com/videocall/room-access/internal/api/handler"
	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/ports"
	"github.com/videocall/room-access/internal/core/service"
	"github.com/videocall/room-access/internal/infrastructure/config"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth    *service.AuthService
	Guest   ports.GuestService
	Gateway *service.ConnectionGateway
	Policy  service.RoomPolicy
	Hub     *handler.RoomHub
	Audit   ports.AuditPublisher
	Cookie  middleware.SessionCookie
	WS      config.WebSocketConfig
	Checks  []handler.DependencyCheck
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))

	session := middleware.Session(d.Auth, d.Cookie, d.Log)
	readSession := middleware.ReadSession(d.Auth, d.Cookie.Name, d.Log)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie, d.Log)
	guestHandler := handler.NewGuestHandler(d.Guest, d.Cookie, d.Log)

	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, session)
	auth.POST("/logout", authHandler.Logout, session)
	auth.GET("/check", authHandler.Check, readSession) // status never slides the session
	auth.POST("/guest/generate", guestHandler.Generate, session, middleware.RequireKind(middleware.KindRegistered))
	auth.POST("/guest/validate", guestHandler.Validate, session)

	// --- Rooms ---
	roomHandler := handler.NewRoomHandler(d.Policy, d.Audit, d.Log)
	wsHandler := handler.NewRoomWSHandler(d.Hub, d.Policy, d.Audit, d.WS, d.Log)

	e.GET("/rooms/:room_id/access", roomHandler.Access, session)
	e.GET("/ws/rooms/:room_id", wsHandler.Connect,
		middleware.ConnectionAuth(d.Gateway, d.Audit, d.Log),
		session,
	)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
