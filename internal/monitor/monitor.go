// Package monitor samples bridge health on an interval and ships the
// numbers to InfluxDB for dashboards.
package monitor

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/simstage/bridge/internal/pool"
)

// PerformanceBucket receives one point per sample.
const PerformanceBucket = "bridge_performance"

// LoopStats exposes frame-loop numbers for sampling.
type LoopStats interface {
	Accumulator() float64
	TickCount() uint64
	PendingCommands() int
	PendingEvents() int
}

// FxStats exposes effect-driver numbers for sampling.
type FxStats interface {
	ActiveCount() int
	PoolStats() map[string]pool.Stat
}

// RecorderStats exposes archive backlog for sampling.
type RecorderStats interface {
	QueueDepth() int
}

// Dependencies holds the stat sources for the monitor service. Fx and
// Recorder may be nil when those subsystems are not wired.
type Dependencies struct {
	Loop     LoopStats
	Fx       FxStats
	Recorder RecorderStats
}

// Stats is one sample of bridge health.
type Stats struct {
	Time               time.Time `json:"time"`
	Tick               uint64    `json:"tick"`
	AccumulatorSeconds float64   `json:"accumulatorSeconds"`
	PendingCommands    int       `json:"pendingCommands"`
	PendingEvents      int       `json:"pendingEvents"`
	ActiveFx           int       `json:"activeFx"`
	PooledNodes        int       `json:"pooledNodes"`
	RecorderQueueDepth int       `json:"recorderQueueDepth"`
}

// Service samples Stats on an interval and writes points through the
// Influx manager.
type Service struct {
	deps     Dependencies
	influx   *InfluxManager
	log      zerolog.Logger
	interval time.Duration

	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service. influx may be nil; samples are
// then only available through Snapshot.
func NewService(deps Dependencies, influx *InfluxManager, interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{
		deps:     deps,
		influx:   influx,
		log:      log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the sampler goroutine is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot reads all stat sources once.
func (s *Service) Snapshot() Stats {
	stats := Stats{Time: time.Now()}

	if s.deps.Loop != nil {
		stats.Tick = s.deps.Loop.TickCount()
		stats.AccumulatorSeconds = s.deps.Loop.Accumulator()
		stats.PendingCommands = s.deps.Loop.PendingCommands()
		stats.PendingEvents = s.deps.Loop.PendingEvents()
	}
	if s.deps.Fx != nil {
		stats.ActiveFx = s.deps.Fx.ActiveCount()
		for _, ps := range s.deps.Fx.PoolStats() {
			stats.PooledNodes += ps.Size
		}
	}
	if s.deps.Recorder != nil {
		stats.RecorderQueueDepth = s.deps.Recorder.QueueDepth()
	}

	return stats
}

// Start starts the sampler goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.log.Debug().Dur("interval", s.interval).Msg("Starting bridge monitor")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				stats := s.Snapshot()
				if s.influx == nil {
					continue
				}
				if err := s.influx.WritePoint(context.Background(), PerformanceBucket, StatsToPoint(stats)); err != nil {
					s.log.Error().Err(err).Msg("Error writing performance point")
				}
			}
		}
	}()

	return nil
}

// Stop stops the sampler goroutine. Calling Stop more than once is safe.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}

// StatsToPoint converts a sample into an InfluxDB point.
func StatsToPoint(stats Stats) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"bridge_frame",
		map[string]string{},
		map[string]interface{}{
			"tick":                 int64(stats.Tick),
			"accumulator_seconds":  stats.AccumulatorSeconds,
			"pending_commands":     stats.PendingCommands,
			"pending_events":       stats.PendingEvents,
			"active_fx":            stats.ActiveFx,
			"pooled_nodes":         stats.PooledNodes,
			"recorder_queue_depth": stats.RecorderQueueDepth,
		},
		stats.Time,
	)
}
