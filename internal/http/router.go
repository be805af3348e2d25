package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/avajson/internal/config"
	"github.com/geocoder89/avajson/internal/http/handlers"
	"github.com/geocoder89/avajson/internal/http/middlewares"
	"github.com/geocoder89/avajson/internal/observability"
)

// Deps are the already-wired collaborators of the router.
type Deps struct {
	Log      *slog.Logger
	Gateway  handlers.DocumentGateway
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ready    []handlers.ReadinessCheck
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	// health
	h := handlers.NewHealthHandler(deps.Ready...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/swagger", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	docs := handlers.NewDocumentsHandler(deps.Gateway)

	r.GET("/", docs.Root)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes), middlewares.RequireJSON())
	api.POST("/get_json", docs.GetJSON)

	return r
}
