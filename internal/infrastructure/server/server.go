package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/crazyserver/homeassistant-core/internal/api/http"
	"github.com/crazyserver/homeassistant-core/internal/api/middleware"
	"github.com/crazyserver/homeassistant-core/internal/api/ws"
	"github.com/crazyserver/homeassistant-core/internal/domain/blueprint"
	"github.com/crazyserver/homeassistant-core/internal/domain/collection"
	"github.com/crazyserver/homeassistant-core/internal/domain/editor"
	"github.com/crazyserver/homeassistant-core/internal/domain/registry"
	"github.com/crazyserver/homeassistant-core/internal/domain/script"
	"github.com/crazyserver/homeassistant-core/internal/domain/store"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/config"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	router  *gin.Engine
	http    *http.Server

	registry    *registry.Registry
	collections []*collection.Collection
	stores      []*store.Store

	cancel context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()
	entityRegistry := registry.New()
	blueprints := blueprint.NewStore(filepath.Join(cfg.Storage.ConfigDir, "blueprints"))

	// One store/validator/collection/editor chain per collection. Scripts
	// are the only collection today; adding another is one more Register.
	scriptStore := store.New(filepath.Join(cfg.Storage.ConfigDir, "scripts.yaml"))
	scriptValidator := script.NewValidator(entityRegistry, blueprints)
	scripts := collection.New(script.Domain, scriptStore, entityRegistry, scriptValidator, logger).
		WithMetrics(metrics)
	scriptEditor := editor.New(script.Domain, scriptStore, scriptValidator, scripts, logger).
		WithMetrics(metrics)

	handlers := apihttp.NewHandlers(logger)
	handlers.Register(scriptEditor, scripts)
	handlers.RegisterBlueprints(blueprints)
	wsHandler := ws.NewHandler(logger, metrics, scripts)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/states/:collection", handlers.ListStates)
	router.GET("/api/blueprints/:collection", handlers.ListBlueprints)

	api := router.Group("/api/config")
	api.GET("/:collection/config/:key", handlers.GetEntry)
	api.POST("/:collection/config/:key", handlers.UpdateEntry)
	api.DELETE("/:collection/config/:key", handlers.DeleteEntry)

	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		router:      router,
		registry:    entityRegistry,
		collections: []*collection.Collection{scripts},
		stores:      []*store.Store{scriptStore},
	}, nil
}

// Run starts the background reload loops and serves HTTP until Close.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// The watcher needs the directory to exist before the first document
	// is ever saved.
	if err := os.MkdirAll(s.cfg.Storage.ConfigDir, 0o755); err != nil {
		s.logger.Warn("Failed to create config directory",
			zap.String("dir", s.cfg.Storage.ConfigDir), zap.Error(err))
	}

	for i, col := range s.collections {
		col := col
		go col.Run(ctx)
		col.Reconcile()

		if s.cfg.Storage.Watch {
			err := s.stores[i].Watch(ctx, s.logger, func() {
				col.DocumentChanged(col.Domain())
			})
			if err != nil {
				s.logger.Warn("Document watch disabled",
					zap.String("collection", col.Domain()), zap.Error(err))
			}
		}
	}

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting config editor service", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops background loops and shuts the HTTP server down gracefully.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.http == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
