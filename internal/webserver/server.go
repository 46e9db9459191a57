package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nomfundokagwe/Creds.json-session-id/config"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONSerializer plugs jsoniter into echo.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

// Server is the HTTP front of the service.
type Server struct {
	cfg  config.WebConfig
	root *echo.Echo
}

// New builds the echo instance with request logging and panic recovery installed.
func New(cfg config.WebConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	return &Server{cfg: cfg, root: e}
}

// Echo exposes the router for route registration and tests.
func (s *Server) Echo() *echo.Echo {
	return s.root
}

func (s *Server) GET(path string, h echo.HandlerFunc) {
	s.root.GET(path, h)
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	zap.L().Info("webserver: listening", zap.String("addr", s.Addr()))
	err := s.root.Start(s.Addr())
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.root.Shutdown(ctx)
}

// RequestLogger writes one zap entry per request, at warn for 4xx and error
// for 5xx.
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if id := c.Response().Header().Get("X-Session-Id"); id != "" {
				fields = append(fields, zap.String("session", id))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				zap.L().Error("webserver: request", fields...)
			case v.Status >= 400:
				zap.L().Warn("webserver: request", fields...)
			default:
				zap.L().Info("webserver: request", fields...)
			}
			return nil
		},
	})
}
