package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railzwaylabs/audittrail/internal/config"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	"github.com/railzwaylabs/audittrail/internal/observability"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Metrics     *observability.Metrics
	ExportSvc   exportdomain.Service
	ScheduleSvc scheduledomain.Service
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	metrics     *observability.Metrics
	engine      *gin.Engine
	exportSvc   exportdomain.Service
	scheduleSvc scheduledomain.Service
}

func NewEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

func NewServer(p Params, engine *gin.Engine) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		metrics:     p.Metrics,
		engine:      engine,
		exportSvc:   p.ExportSvc,
		scheduleSvc: p.ScheduleSvc,
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api/v1")
	api.Use(s.OrgScope())

	api.POST("/exports", s.CreateExportJob)
	api.GET("/exports", s.ListExportJobs)
	api.GET("/exports/:id", s.GetExportJob)
	api.GET("/exports/:id/download", s.DownloadExportArtifact)
	api.DELETE("/exports/:id", s.DeleteExportJob)

	api.POST("/schedules", s.CreateExportSchedule)
	api.GET("/schedules", s.ListExportSchedules)
	api.GET("/schedules/:id", s.GetExportSchedule)
	api.PATCH("/schedules/:id", s.UpdateExportSchedule)
	api.DELETE("/schedules/:id", s.DeleteExportSchedule)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
