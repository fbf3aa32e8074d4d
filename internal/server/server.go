package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cloudronix/deviceinfo/internal/log"
	"github.com/cloudronix/deviceinfo/internal/panel"
)

const (
	shutdownTimeout = 10 * time.Second
	writeTimeout    = 5 * time.Second
)

// Server serves the device info panel over HTTP and WebSocket
type Server struct {
	ctrl     *panel.Controller
	echo     *echo.Echo
	refresh  time.Duration
	version  string
	upgrader websocket.Upgrader

	// ctx ends every open stream on Shutdown; echo does not track hijacked
	// connections
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a panel server; refresh is the WebSocket push interval
func New(ctrl *panel.Controller, refresh time.Duration, version string) *Server {
	if refresh <= 0 {
		refresh = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:     ctx,
		cancel:  cancel,
		ctrl:    ctrl,
		echo:    echo.New(),
		refresh: refresh,
		version: version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.setupRoutes()
	return s
}

// ServeHTTP lets the server be mounted or tested without listening
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", s.version).
			Dur("refresh", s.refresh).
			Msg("Starting device info server")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Server startup failed")
		return err
	case <-quit:
	}

	return s.Shutdown()
}

// Shutdown stops the server, closing open streams and waiting for in-flight
// requests
func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down server...")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/api/v1/panel", s.getPanel)
	s.echo.GET("/api/v1/panel/text", s.getPanelText)
	s.echo.GET("/ws", s.streamPanel)
}

func (s *Server) healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// getPanel handles GET /api/v1/panel
func (s *Server) getPanel(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.ctrl.Display())
}

// getPanelText handles GET /api/v1/panel/text
func (s *Server) getPanelText(ctx echo.Context) error {
	return ctx.String(http.StatusOK, s.ctrl.Text(s.ctrl.Display()))
}

// streamPanel handles GET /ws, pushing a fresh panel every refresh interval
func (s *Server) streamPanel(ctx echo.Context) error {
	conn, err := s.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}
	defer conn.Close()

	remote := ctx.RealIP()
	log.Debug().Str("remote", remote).Msg("WebSocket client connected")

	// Reads only detect the peer going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		if err := s.push(conn); err != nil {
			log.Debug().Err(err).Str("remote", remote).Msg("WebSocket push failed")
			return nil
		}

		select {
		case <-done:
			log.Debug().Str("remote", remote).Msg("WebSocket client disconnected")
			return nil
		case <-ctx.Request().Context().Done():
			return nil
		case <-s.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeTimeout))
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Server) push(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(s.ctrl.Display())
}
