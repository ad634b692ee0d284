package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudteams/developer-services/api/echoapi"
	"github.com/cloudteams/developer-services/config"
	"github.com/cloudteams/developer-services/log"
	"github.com/cloudteams/developer-services/middleware"
	"github.com/cloudteams/developer-services/mongodb"
	"github.com/cloudteams/developer-services/services"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, api *echoapi.API, tokens *services.TokenService) *http.Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())

	// Request logging through the structured logger, with trace ids when
	// the context carries a span.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := map[string]interface{}{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			}
			if err != nil {
				appLogger.Error(c.Request().Context(), "HTTP request failed", err, fields)
			} else {
				appLogger.Info(c.Request().Context(), "HTTP request", fields)
			}
			return err
		}
	})

	e.Use(middleware.BearerAuth(tokens))

	api.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		if err := mongodb.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: e,
		// No WriteTimeout: the token rendezvous legitimately holds a
		// response open for up to interval*attempts (~200s by default).
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return srv
}

// Shutdown gracefully stops the HTTP server.
func Shutdown(ctx context.Context, srv *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
