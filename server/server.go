package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"users-service/confs"
	"users-service/db"
	"users-service/handlers"
	httpHandler "users-service/handlers/http"
	"users-service/logger"
	"users-service/metrics"
	"users-service/repositories"
	"users-service/usecases"
	"users-service/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	app     *gin.Engine
	db      db.Database
	cfg     confs.Config
	metrics *metrics.Metrics
	feed    *ws.Manager
}

func NewServer(database db.Database, cfg confs.Config) *Server {
	switch {
	case cfg.Testing:
		gin.SetMode(gin.TestMode)
	case cfg.Debug:
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		app:     gin.New(),
		db:      database,
		cfg:     cfg,
		metrics: metrics.New(),
		feed:    ws.NewManager(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	s.app.Use(s.metrics.Middleware())

	// Setup CORS middleware
	config := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) > 0 {
		config.AllowOrigins = s.cfg.CORSOrigins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	s.app.Use(cors.New(config))

	// Initialize repositories and use cases
	userRepo := repositories.NewUserPgRepository(s.db)
	wsHandler := handlers.NewWSHandler(s.feed)
	usersUseCase := usecases.NewUsersUseCase(userRepo, wsHandler)

	// Initialize handlers
	usersHandler := httpHandler.NewUsersHandler(usersUseCase, s.metrics)

	s.metrics.RegisterGaugeFunc("users_feed_subscribers", "Number of connected users feed subscribers",
		func() float64 { return float64(s.feed.Count()) })

	users := s.app.Group("/users")
	{
		users.GET("/ping", usersHandler.Ping)
		users.GET("/ws", wsHandler.HandleUsersWS) // Live feed of created users
		users.POST("", usersHandler.AddUser)
		users.GET("", usersHandler.GetAllUsers)
		users.GET("/:id", usersHandler.GetSingleUser)
	}

	s.app.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.app,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Listening on %s", s.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		s.feed.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
