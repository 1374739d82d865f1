package server

import (
	"net/http"
	"time"

	"hear-me-out/internal/config"
	"hear-me-out/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	engine  *game.Engine
	cfg     config.Config
	ws      *wsHub
	limiter *rateLimiter
}

func New(engine *game.Engine, cfg config.Config) *Server {
	registerValidators(cfg)
	return &Server{
		engine:  engine,
		cfg:     cfg,
		ws:      newWSHub(engine),
		limiter: newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.GET("/me", s.handleGetMe)
	api.POST("/me", s.handleSetMe)
	api.POST("/rooms", s.enforceRateLimit("create"), s.handleCreateRoom)

	room := api.Group("/rooms/:code")
	room.GET("", s.handleGetRoom)
	room.POST("/join", s.enforceRateLimit("join"), s.handleJoinRoom)
	room.POST("/start", s.handleStartGame)
	room.POST("/inventions", s.handleSubmitInvention)
	room.POST("/inventions/check", s.handleCheckInventions)
	room.POST("/drawings", s.handleSubmitDrawing)
	room.POST("/drawings/finish", s.handleFinishDrawing)
	room.POST("/presenter/advance", s.handleAdvancePresenter)
	room.POST("/presenter/next", s.handleAdvanceOrFinish)
	room.POST("/end", s.handleEndGame)

	r.GET("/ws/rooms/:code", s.handleRoomWebsocket)

	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if path == "/healthz" {
			return
		}
		status := c.Writer.Status()
		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.Str("method", c.Request.Method).Str("path", path).Int("status", status).Dur("dur", time.Since(start)).Msg("http")
	}
}
