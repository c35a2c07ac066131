package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	AppName              string
	AllowOrigins         []string
	Logger               *slog.Logger
	SlowRequestThreshold time.Duration
	EnableMetrics        bool
}

func NewRouter(opts RouterOptions) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(logger)

	allowCredentials := true
	for _, origin := range opts.AllowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	registerLogging(e, loggingConfig{logger: logger, slowThreshold: opts.SlowRequestThreshold})

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
			echo.HeaderXRequestID,
		},
		ExposeHeaders:    []string{echo.HeaderXRequestID, "X-Process-Time"},
		AllowCredentials: allowCredentials,
	}))

	name := opts.AppName
	if name == "" {
		name = "web-starter-api"
	}
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"name": name, "docs": "/swagger/index.html"})
	})
	if opts.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	return e
}
