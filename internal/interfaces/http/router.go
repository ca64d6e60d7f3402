package http

import (
	"net/http"

	"github.com/dreschagin/guild-insights/internal/interfaces/http/handler"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/middleware"
	"github.com/dreschagin/guild-insights/pkg/config"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

// Observability подключает метрики к router. Поля могут быть nil.
type Observability struct {
	Middleware  func(http.Handler) http.Handler
	Handler     http.Handler
	RateLimited func()
}

// Router настраивает маршруты приложения
type Router struct {
	mux               *http.ServeMux
	guildAPIHandler   *handler.GuildAPIHandler
	commandAPIHandler *handler.CommandAPIHandler
	websocketHandler  *handler.WebSocketHandler
	healthHandler     *handler.HealthHandler
	analyzeLimiter    *middleware.IPRateLimiter
	observability     Observability
	security          config.SecurityConfig
	logger            *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	guildAPIHandler *handler.GuildAPIHandler,
	commandAPIHandler *handler.CommandAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	analyzeLimiter *middleware.IPRateLimiter,
	observability Observability,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		guildAPIHandler:   guildAPIHandler,
		commandAPIHandler: commandAPIHandler,
		websocketHandler:  websocketHandler,
		healthHandler:     healthHandler,
		analyzeLimiter:    analyzeLimiter,
		observability:     observability,
		security:          security,
		logger:            logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("GET /healthz", rt.healthHandler.Live)
	rt.mux.HandleFunc("GET /readyz", rt.healthHandler.Ready)

	if rt.observability.Handler != nil {
		rt.mux.Handle("GET /metrics", rt.observability.Handler)
	}

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// WebSocket, авторизация проверяется внутри handler
	rt.mux.HandleFunc("GET /ws", rt.websocketHandler.HandleConnection)

	// Анализ открывает сессию gateway, поэтому ограничен по IP
	var analyze http.Handler = http.HandlerFunc(rt.guildAPIHandler.Analyze)
	if rt.analyzeLimiter != nil {
		analyze = middleware.RateLimit(rt.analyzeLimiter, rt.observability.RateLimited)(analyze)
	}
	rt.mux.Handle("POST /api/v1/guilds/analyze", analyze)

	rt.mux.Handle("GET /api/v1/guilds/{guildID}/report/latest", authMiddleware(http.HandlerFunc(rt.guildAPIHandler.LatestReport)))
	rt.mux.Handle("GET /api/v1/guilds/{guildID}/history", authMiddleware(http.HandlerFunc(rt.guildAPIHandler.History)))

	// Команды авторизуются OAuth токеном Discord пользователя
	rt.mux.HandleFunc("POST /api/v1/commands", rt.commandAPIHandler.Submit)

	// Применяем middleware
	var handler http.Handler = rt.mux
	handler = middleware.Recovery(rt.logger)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.Logger(rt.logger)(handler)
	if rt.observability.Middleware != nil {
		handler = rt.observability.Middleware(handler)
	}
	handler = middleware.RequestID(handler)

	return handler
}
