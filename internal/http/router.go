package http

import (
	"log/slog"

	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/http/handlers"
	"github.com/geocoder89/noteflow/internal/http/middlewares"
	"github.com/geocoder89/noteflow/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AuthAPI is the auth service as seen by both the auth routes and the
// middleware guarding the note routes.
type AuthAPI interface {
	handlers.AuthService
	middlewares.Authenticator
}

type Deps struct {
	Auth  AuthAPI
	Notes handlers.NoteService

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   []handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	switch cfg.Env {
	case "dev":
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORS(cfg.AllowedOrigins))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	// ops
	meta := handlers.NewMetaHandler(cfg.AllowedOrigins)
	r.GET("/", meta.Root)
	r.GET("/api/test", meta.Ping)

	h := handlers.NewHealthHandler(deps.Checks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// api
	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	authHandler := handlers.NewAuthHandler(deps.Auth)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/profile", authHandler.Profile)

	authMW := middlewares.NewAuthMiddleware(deps.Auth)
	notesHandler := handlers.NewNotesHandler(deps.Notes)

	notes := api.Group("/notes", authMW.RequireAuth())
	notes.GET("", notesHandler.ListNotes)
	notes.POST("", notesHandler.CreateNote)
	notes.GET("/:id", notesHandler.GetNote)
	notes.PUT("/:id", notesHandler.UpdateNote)
	notes.DELETE("/:id", notesHandler.DeleteNote)

	return r
}
