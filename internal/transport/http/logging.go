package http

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/njprem/web-starter-api/internal/metrics"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
	redacted           = "redacted"
)

// sensitiveKeys are matched as substrings of lower-cased JSON or form keys.
var sensitiveKeys = []string{"password", "token", "secret", "authorization"}

type loggingConfig struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

func registerLogging(e *echo.Echo, cfg loggingConfig) {
	e.Use(processTime())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if user, ok := CurrentUser(c); ok {
				userID = user.ID.String()
			}

			route := v.RoutePath
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(v.Method, route, strconv.Itoa(v.Status), v.Latency)

			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("user_id", userID),
				slog.String("remote_ip", v.RemoteIP),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
				slog.Group("request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Any("body", c.Get(requestBodyLogKey)),
				),
				slog.Group("response",
					slog.Int("status", v.Status),
					slog.Any("body", c.Get(responseBodyLogKey)),
				),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			level := slog.LevelInfo
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case cfg.slowThreshold > 0 && v.Latency >= cfg.slowThreshold:
				level = slog.LevelWarn
				attrs = append(attrs, slog.Bool("slow", true))
			}
			cfg.logger.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger") || c.Path() == "/metrics"
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
				c.Set(requestBodyLogKey, summary)
			}
			if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
				c.Set(responseBodyLogKey, summary)
			}
		},
	}))
}

// processTime reports handler latency in seconds on every response.
func processTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				elapsed := time.Since(start).Seconds()
				c.Response().Header().Set("X-Process-Time", strconv.FormatFloat(elapsed, 'f', 6, 64))
			})
			return next(c)
		}
	}
}

func sanitizeBody(body []byte, contentType string) any {
	if len(body) == 0 {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(contentType))

	if strings.HasPrefix(lowered, "multipart/") {
		return "binary"
	}

	if strings.HasPrefix(lowered, echo.MIMEApplicationJSON) || json.Valid(body) {
		var data any
		if err := json.Unmarshal(body, &data); err == nil {
			return limitSize(sanitizeJSON(data, ""))
		}
	}

	if strings.HasPrefix(lowered, echo.MIMEApplicationForm) {
		if values, err := url.ParseQuery(string(body)); err == nil && len(values) > 0 {
			out := make(map[string]any, len(values))
			for key, vals := range values {
				if isSensitive(key) {
					out[key] = redacted
					continue
				}
				out[key] = clampString(strings.Join(vals, ","))
			}
			return limitSize(out)
		}
	}

	if containsBinary(body) {
		return "binary"
	}
	text := string(body)
	if isSensitive(text) {
		return redacted
	}
	return clampString(text)
}

func sanitizeJSON(value any, parentKey string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if isSensitive(key) {
				out[key] = redacted
				continue
			}
			out[key] = sanitizeJSON(val, key)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeJSON(item, parentKey)
		}
		return out
	case string:
		if containsBinary([]byte(v)) {
			return "binary"
		}
		return clampString(v)
	default:
		return v
	}
}

func isSensitive(key string) bool {
	lowered := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}

func limitSize(value any) any {
	buf, err := json.Marshal(value)
	if err != nil || len(buf) <= maxLoggedBody {
		return value
	}
	return map[string]any{"_truncated": true, "_bytes": len(buf)}
}

func containsBinary(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
