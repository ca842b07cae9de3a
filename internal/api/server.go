// Package api exposes the HTTP and WebSocket surface of the service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"squad-markets/config"
	"squad-markets/internal/auth"
	"squad-markets/internal/chat"
	"squad-markets/internal/database"
	"squad-markets/internal/events"
	"squad-markets/internal/leaderboard"
)

// RateLimiter provides simple in-memory rate limiting per key
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	repo         *database.Repository
	authService  *auth.Service
	jwtManager   *auth.JWTManager
	leaderboards *leaderboard.Service
	hub          *chat.Hub
	eventBus     *events.EventBus
	config       config.ServerConfig
	squadConfig  config.SquadConfig
	rateLimiter  *RateLimiter
	logger       zerolog.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	squadCfg config.SquadConfig,
	repo *database.Repository,
	authService *auth.Service,
	jwtManager *auth.JWTManager,
	leaderboards *leaderboard.Service,
	hub *chat.Hub,
	eventBus *events.EventBus,
	logger zerolog.Logger,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:       router,
		repo:         repo,
		authService:  authService,
		jwtManager:   jwtManager,
		leaderboards: leaderboards,
		hub:          hub,
		eventBus:     eventBus,
		config:       cfg,
		squadConfig:  squadCfg,
		rateLimiter:  NewRateLimiter(60, time.Minute),
		logger:       logger.With().Str("component", "api").Logger(),
	}

	server.wireChat()
	server.setupRoutes()

	return server
}

// wireChat connects inbound chat messages and squad events to the room hub
func (s *Server) wireChat() {
	s.hub.SetMessageHandler(func(squadID, userID, body string) {
		msg := &database.SquadMessage{
			ID:      uuid.New().String(),
			SquadID: squadID,
			UserID:  userID,
			Kind:    database.MessageKindUser,
			Body:    body,
		}
		if err := s.repo.SaveMessage(context.Background(), msg); err != nil {
			s.logger.Error().Err(err).Str("squad_id", squadID).Msg("failed to persist chat message")
			return
		}
		s.eventBus.PublishMessagePosted(squadID, msg.ID, userID, body)
	})

	// Every squad event reaches the squad's room; winner announcements are
	// additionally persisted as system messages so late joiners see them.
	s.eventBus.SubscribeAll(s.hub.BroadcastEvent)
	s.eventBus.Subscribe(events.EventWinnerAnnounced, func(event events.Event) {
		body, _ := event.Data["message"].(string)
		if body == "" {
			return
		}
		msg := &database.SquadMessage{
			ID:      uuid.New().String(),
			SquadID: event.SquadID,
			Kind:    database.MessageKindSystem,
			Body:    body,
		}
		if err := s.repo.SaveMessage(context.Background(), msg); err != nil {
			s.logger.Warn().Err(err).Str("squad_id", event.SquadID).Msg("failed to persist announcement")
		}
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Use(s.rateLimitMiddleware())
	{
		authRoutes.POST("/register", s.handleRegister)
		authRoutes.POST("/login", s.handleLogin)
	}

	protected := api.Group("")
	protected.Use(auth.Middleware(s.jwtManager))
	{
		protected.PUT("/profile", s.handleUpdateProfile)

		protected.POST("/squads", s.handleCreateSquad)
		protected.GET("/squads", s.handleListSquads)
		protected.GET("/squads/:id", s.handleGetSquad)
		protected.POST("/squads/join", s.handleJoinSquad)
		protected.POST("/squads/:id/leave", s.handleLeaveSquad)
		protected.GET("/squads/:id/messages", s.handleListMessages)

		protected.GET("/squads/:id/leaderboard", s.handleGetLeaderboard)
		protected.POST("/squads/:id/winner", s.handleCalculateWinner)

		protected.GET("/squads/:id/ws", s.handleSquadWebSocket)
	}
}

// rateLimitMiddleware limits unauthenticated endpoints per client IP
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		if !s.rateLimiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// marshalJSON is a helper for event payloads sent over websockets
func marshalJSON(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}
