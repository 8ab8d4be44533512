package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	completenessdomain "github.com/voltixaudit/voltix/internal/completeness/domain"
	"github.com/voltixaudit/voltix/internal/config"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	obslogger "github.com/voltixaudit/voltix/internal/observability/logger"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	obstracing "github.com/voltixaudit/voltix/internal/observability/tracing"
	"github.com/voltixaudit/voltix/internal/ratelimit"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
	"github.com/voltixaudit/voltix/internal/report"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type reportService interface {
	Render(ctx context.Context, userID, projectID snowflake.ID) (report.Document, error)
	Send(ctx context.Context, userID, projectID snowflake.ID) error
}

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	accounts        accountdomain.Service
	inventory       invdomain.Service
	completeness    completenessdomain.Service
	audits          eadomain.Service
	recommendations recdomain.Service
	reports         reportService
	authLimiter     *ratelimit.AuthLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Accounts        accountdomain.Service
	Inventory       invdomain.Service
	Completeness    completenessdomain.Service
	Audits          eadomain.Service
	Recommendations recdomain.Service
	Reports         *report.Service
	AuthLimiter     *ratelimit.AuthLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		accounts:        p.Accounts,
		inventory:       p.Inventory,
		completeness:    p.Completeness,
		audits:          p.Audits,
		recommendations: p.Recommendations,
		reports:         p.Reports,
		authLimiter:     p.AuthLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	api := s.engine.Group("/api")

	api.POST("/signup", s.AuthRateLimit(), s.Signup)
	api.POST("/login", s.AuthRateLimit(), s.Login)
	api.GET("/plans", s.ListPlans)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/me", s.Me)

	// -------- Projects --------
	api.POST("/projects", s.CreateProject)
	api.GET("/projects", s.ListProjects)
	api.GET("/projects/:id", s.GetProject)
	api.GET("/projects/:id/stats", s.GetProjectStats)
	api.POST("/projects/:id/building", s.CreateBuilding)
	api.GET("/projects/:id/building", s.GetBuilding)

	// -------- Inventory --------
	api.POST("/buildings/:id/floors", s.AddFloor)
	api.DELETE("/floors/:id", s.RemoveFloor)
	api.POST("/floors/:id/rooms", s.AddRoom)
	api.POST("/rooms/:id/equipment", s.AddEquipment)
	api.DELETE("/equipment/:id", s.RemoveEquipment)

	// -------- Completeness --------
	api.GET("/projects/:id/alerts", s.ListAlerts)
	api.POST("/alerts/:id/resolve", s.ResolveAlert)

	// -------- Audits --------
	api.POST("/projects/:id/audit", s.RunAudit)
	api.GET("/projects/:id/results/latest", s.GetLatestResult)
	api.GET("/projects/:id/results", s.ListResults)
	api.GET("/projects/:id/recommendations", s.ListRecommendations)
	api.GET("/projects/:id/recommendations/summary", s.GetRecommendationSummary)

	// -------- Reports --------
	api.GET("/projects/:id/report.pdf", s.DownloadReport)
	api.POST("/projects/:id/report/send", s.SendReport)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
