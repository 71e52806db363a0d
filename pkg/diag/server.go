// Package diag serves engine diagnostics over HTTP.
package diag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/justyntemme/cityaudio/pkg/engine"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

// Source is the part of the engine the server reads. Every method must be
// safe to call from the HTTP goroutines.
type Source interface {
	Stats() engine.Stats
	Buses() []bus.Level
}

// Server is the diagnostics Echo application.
type Server struct {
	echo    *echo.Echo
	source  Source
	prof    *debug.Profiler
	log     *debug.Logger
	started time.Time
}

// New constructs the server. prof may be nil, in which case /api/profile
// reports no sections.
func New(src Source, prof *debug.Profiler, log *debug.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, source: src, prof: prof, log: debug.Or(log), started: time.Now()}
	s.registerRoutes()
	return s
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/stats", s.handleStats)
	s.echo.GET("/api/buses", s.handleBuses)
	s.echo.GET("/api/buses/:bus", s.handleBus)
	s.echo.GET("/api/profile", s.handleProfile)
}

// Run serves on addr until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.log.Info("diagnostics listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		return nil
	}
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime_seconds"`
	Callbacks uint64  `json:"callbacks"`
	Overruns  uint64  `json:"overruns"`
}

func (s *Server) handleHealth(c echo.Context) error {
	st := s.source.Stats()
	status := "ok"
	if st.Callbacks == 0 {
		status = "idle"
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(s.started).Seconds(),
		Callbacks: st.Callbacks,
		Overruns:  st.Overruns,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.source.Stats())
}

func (s *Server) handleBuses(c echo.Context) error {
	return c.JSON(http.StatusOK, s.source.Buses())
}

func (s *Server) handleBus(c echo.Context) error {
	id, ok := bus.ParseID(c.Param("bus"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown bus")
	}
	for _, l := range s.source.Buses() {
		if l.Bus == id.String() {
			return c.JSON(http.StatusOK, l)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "unknown bus")
}

func (s *Server) handleProfile(c echo.Context) error {
	if s.prof == nil {
		return c.JSON(http.StatusOK, []debug.Measurement{})
	}
	return c.JSON(http.StatusOK, s.prof.Snapshot())
}
