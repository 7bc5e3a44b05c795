package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nurpe/contractor-ledger/internal/config"
	"github.com/nurpe/contractor-ledger/internal/http/middleware"
)

func NewRouter(handler *Handler, profileMiddleware gin.HandlerFunc, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.ProfileHeader},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.Register(router, profileMiddleware)
	return router
}

// ProfileMiddleware picks the resolver for the configured auth mode.
func ProfileMiddleware(cfg *config.Config, parser middleware.TokenParser, loader middleware.ProfileLoader) gin.HandlerFunc {
	var resolver middleware.ProfileResolver = middleware.HeaderResolver{}
	if cfg.Auth.Mode == config.AuthModeJWT {
		resolver = middleware.JWTResolver{Parser: parser}
	}
	return middleware.Profile(resolver, loader)
}
