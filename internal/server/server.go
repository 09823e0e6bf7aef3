package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"authapi/internal/config"
	"authapi/internal/guard"
	"authapi/internal/handler"
	"authapi/internal/middleware"
	"authapi/internal/notifier"
	"authapi/internal/repository"
	"authapi/internal/service"
	"authapi/internal/token"
)

type Server struct {
	router  *gin.Engine
	db      *sqlx.DB
	log     *zap.Logger
	started time.Time
}

// NewServer wires repositories, services, handlers and middleware into a
// gin router. All dependencies are injected; nothing here reads globals.
func NewServer(db *sqlx.DB, redisClient redis.UniversalClient, cfg *config.Config, alerts *notifier.Dispatcher, accessLog *logrus.Logger, log *zap.Logger) (*Server, error) {
	issuer, err := token.NewIssuer(cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(accessLog))

	guardEngine := guard.NewEngine(redisClient, guard.DefaultConfig(), log)
	router.Use(middleware.Security(guardEngine, issuer, alerts, log))

	s := &Server{
		router:  router,
		db:      db,
		log:     log,
		started: time.Now(),
	}

	authRepo := repository.NewUserRepository(db, log)
	authService := service.NewAuthService(authRepo, log)
	authHandler := handler.NewAuthHandler(authService, issuer, log)

	router.GET("/health", s.health)

	authGroup := router.Group("/api/auth")
	authGroup.POST("/sign-up", authHandler.Signup)
	authGroup.POST("/sign-in", authHandler.Signin)
	authGroup.POST("/sign-out", authHandler.Signout)

	return s, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "OK",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(s.started).String(),
	})
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Run(port string) {
	s.log.Info("Server starting", zap.String("port", port))
	if err := s.router.Run(":" + port); err != nil {
		s.log.Fatal("Server failed to start", zap.Error(err))
	}
}
