package server

import (
	"context"
	"net/http"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	"github.com/geodesk/atlasfx/internal/country"
	countrydomain "github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/geodesk/atlasfx/internal/fetch"
	"github.com/geodesk/atlasfx/internal/observability"
	obsmiddleware "github.com/geodesk/atlasfx/internal/observability/logger"
	obsmetrics "github.com/geodesk/atlasfx/internal/observability/metrics"
	obstracing "github.com/geodesk/atlasfx/internal/observability/tracing"
	"github.com/geodesk/atlasfx/internal/reconcile"
	"github.com/geodesk/atlasfx/internal/reflock"
	"github.com/geodesk/atlasfx/internal/status"
	statusdomain "github.com/geodesk/atlasfx/internal/status/domain"
	"github.com/geodesk/atlasfx/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	reflock.Module,
	fetch.Module,
	reconcile.Module,
	summary.Module,
	status.Module,
	country.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
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

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine     *gin.Engine
	cfg        config.Config
	countrySvc countrydomain.Service
	statusSvc  statusdomain.Service
	renderer   summary.Renderer
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	CountrySvc countrydomain.Service
	StatusSvc  statusdomain.Service
	Renderer   summary.Renderer
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		countrySvc: p.CountrySvc,
		statusSvc:  p.StatusSvc,
		renderer:   p.Renderer,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.Root)
	s.engine.GET("/status", s.GetStatus)

	countries := s.engine.Group("/countries")
	{
		countries.POST("/refresh", s.RefreshCountries)
		countries.GET("", s.ListCountries)
		// Registered before the name parameter so "image" is never
		// treated as a country name.
		countries.GET("/image", s.GetSummaryImage)
		countries.GET("/:name", s.GetCountryByName)
		countries.DELETE("/:name", s.DeleteCountryByName)
	}
}
