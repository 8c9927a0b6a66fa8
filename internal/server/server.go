package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/config"
	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	documentdomain "github.com/smallbiznis/etabridge/internal/document/domain"
	etalogdomain "github.com/smallbiznis/etabridge/internal/etalog/domain"
	"github.com/smallbiznis/etabridge/internal/observability"
	obslogger "github.com/smallbiznis/etabridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/etabridge/internal/observability/metrics"
	obstracing "github.com/smallbiznis/etabridge/internal/observability/tracing"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obsmetrics.Handler()))

	return r
}

type ginParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func registerGin(p ginParams) *gin.Engine {
	return NewEngine(p.ObsCfg, p.HTTPMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	recordSvc    recorddomain.Service
	documentSvc  documentdomain.Service
	connectorSvc connectordomain.Service
	logSvc       etalogdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	RecordSvc    recorddomain.Service
	DocumentSvc  documentdomain.Service
	ConnectorSvc connectordomain.Service
	LogSvc       etalogdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		recordSvc:    p.RecordSvc,
		documentSvc:  p.DocumentSvc,
		connectorSvc: p.ConnectorSvc,
		logSvc:       p.LogSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Records --------
	v1.PUT("/records/:kind/:name", s.PutRecord)

	// -------- Documents --------
	documents := v1.Group("/documents")
	{
		documents.POST("/:kind/submit", s.SubmitDocuments)
		documents.GET("/:kind/:name", s.GetDocument)
		documents.GET("/:kind/:name/download", s.DownloadDocument)
		documents.POST("/:kind/:name/validate", s.ValidateDocument)
		documents.POST("/:kind/:name/status", s.RefreshDocumentStatus)
		// only invoices can be cancelled or rendered; the handlers reject other kinds
		documents.POST("/:kind/:name/cancel", s.CancelInvoice)
		documents.GET("/:kind/:name/pdf", s.InvoicePDF)
	}

	// -------- Signer --------
	signer := v1.Group("/signer")
	{
		signer.GET("/:company/pending", CompanyContext(), s.ListPendingSignatures)
		signer.GET("/invoices/:name", s.GetUnsignedInvoice)
		signer.PUT("/invoices/:name/signature", s.StoreSignature)
	}

	// -------- Connectors --------
	v1.POST("/connectors", s.CreateConnector)
	v1.GET("/connectors", s.ListConnectors)

	// -------- Submission logs --------
	v1.GET("/logs/:id", s.GetLog)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
