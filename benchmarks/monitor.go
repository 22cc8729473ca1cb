package benchmarks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is served on /status while a benchmark runs
type Status struct {
	Command     string         `json:"command"`
	Experiments []string       `json:"experiments"`
	Runs        int            `json:"runs"`
	Episodes    int            `json:"episodes"`
	Horizon     int            `json:"horizon"`
	Started     time.Time      `json:"started"`
	Uptime      string         `json:"uptime"`
	Config      TrainingConfig `json:"config"`
}

// Monitor exposes the prometheus registry and the benchmark status over http
type Monitor struct {
	engine *gin.Engine
	server *http.Server
	logger *slog.Logger

	mtx    sync.Mutex
	status Status
}

func NewMonitor(addr string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		engine: gin.New(),
		logger: logger,
		status: Status{Started: time.Now(), Experiments: []string{}},
	}
	m.engine.Use(gin.Recovery())
	m.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	m.engine.GET("/status", m.handleStatus)
	m.server = &http.Server{
		Addr:    addr,
		Handler: m.engine,
	}
	return m
}

// SetStatus replaces the served status, the start time is kept
func (m *Monitor) SetStatus(s Status) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	s.Started = m.status.Started
	m.status = s
}

func (m *Monitor) handleStatus(c *gin.Context) {
	m.mtx.Lock()
	s := m.status
	m.mtx.Unlock()
	s.Uptime = time.Since(s.Started).Round(time.Second).String()
	c.JSON(http.StatusOK, s)
}

// Start serves in the background until Shutdown
func (m *Monitor) Start() {
	go func() {
		m.logger.Info("monitor listening", "addr", m.server.Addr)
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", "err", err)
		}
	}()
}

func (m *Monitor) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
