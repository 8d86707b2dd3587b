// bridgehost runs the simulation/presentation bridge against a fake scene
// backend. It exists to exercise the full wiring outside an engine: demo
// systems feed the command buffer and event bus, the fixed-step scheduler
// drives them, and drained commands are applied to pooled fake nodes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/simstage/bridge/internal/binder"
	"github.com/simstage/bridge/internal/command"
	"github.com/simstage/bridge/internal/config"
	"github.com/simstage/bridge/internal/event"
	"github.com/simstage/bridge/internal/fx"
	"github.com/simstage/bridge/internal/logging"
	"github.com/simstage/bridge/internal/monitor"
	"github.com/simstage/bridge/internal/otelx"
	"github.com/simstage/bridge/internal/pool"
	"github.com/simstage/bridge/internal/recorder"
	"github.com/simstage/bridge/internal/sched"
	"github.com/simstage/bridge/internal/scene/scenetest"
	"github.com/simstage/bridge/pkg/core"
)

var sessionStart = time.Now()

func main() {
	configDir := flag.String("config", ".", "directory containing bridge.cfg.json")
	runFor := flag.Duration("run", 0, "stop after this duration (0 = run until SIGINT)")
	flag.Parse()

	if err := run(*configDir, *runFor); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string, runFor time.Duration) error {
	if err := config.Load(configDir); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, sessionStart))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	otelProvider, err := otelx.New(otelx.Config{
		Enabled:      config.GetBool("otel.enabled"),
		ServiceName:  "sim-bridge",
		BatchTimeout: 5 * time.Second,
		LogWriter:    logFile,
		Endpoint:     config.GetString("otel.endpoint"),
		Insecure:     config.GetBool("otel.insecure"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OTel provider: %w", err)
	}
	defer otelProvider.Shutdown(context.Background())

	slogManager := logging.NewSlogManager()
	opts := logging.Options{File: logFile}
	if otelProvider.Enabled() {
		opts.Provider = otelProvider.LoggerProvider()
	}
	if config.GetBool("graylog.enabled") {
		opts.GraylogAddr = config.GetString("graylog.address")
	}
	slogManager.Setup(config.GetString("logLevel"), opts)
	log := slogManager.Logger()
	defer slogManager.Flush(context.Background())

	zlog := logging.NewZerolog(config.GetString("logLevel"))

	// Simulation side.
	world := newDemoWorld()
	buffer := command.NewBuffer()
	bus := event.NewBus()

	schedCfg, err := config.Scheduler()
	if err != nil {
		return err
	}
	scheduler, err := sched.New(world, buffer, bus, sched.Config{
		FixedDelta:     schedCfg.FixedDelta,
		MaxAccumulator: schedCfg.MaxAccumulator,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	orbit := newOrbitSystem(world, buffer)
	world.Register("orbit", orbit)
	world.Register("contact", newContactSystem(orbit, bus))
	world.Register("pulse", newPulseSystem(bus))

	scheduler.FixedSystems().Add("orbit")
	scheduler.FixedSystems().Add("contact")
	scheduler.RenderSystems().Add("pulse")

	// Presentation side.
	loader := scenetest.NewFakeLoader()
	viewPool, err := pool.New(loader, config.GetInt("pool.maxSize"), log)
	if err != nil {
		return fmt.Errorf("failed to create view pool: %w", err)
	}
	nodeBinder := binder.New()

	fxConfigs, err := fx.ConfigsFromViper()
	if err != nil {
		return fmt.Errorf("invalid fx config: %w", err)
	}
	if _, ok := fxConfigs["spark"]; !ok {
		fxConfigs["spark"] = fx.Config{Path: "assets/fx/spark.prefab", Duration: 1.5}
	}
	fxDriver, err := fx.NewDriver(loader, fxConfigs, config.GetInt("pool.maxSize"), log)
	if err != nil {
		return fmt.Errorf("failed to create fx driver: %w", err)
	}

	present := &presentation{
		pool:   viewPool,
		binder: nodeBinder,
		log:    log,
	}
	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("units/orbiter_%d", i)
		viewPool.PreloadPrefab(key, fmt.Sprintf("assets/%s.prefab", key))
	}

	// Presentation reactions to simulation events.
	bus.Subscribe(core.EventTypeCollision, func(e core.Event) {
		col := e.(core.CollisionEvent)
		fxDriver.PlayFx("spark", col.Point, col.A)
	})
	bus.Subscribe(core.EventTypeUI, func(e core.Event) {
		ui := e.(core.UIEvent)
		log.Debug("ui event", "name", ui.Name, "payload", ui.Payload)
	})

	// Event tap for the recorder: wildcard subscription sees every delivery.
	var tappedEvents []core.Event
	bus.Subscribe(core.EventTypeAny, func(e core.Event) {
		tappedEvents = append(tappedEvents, e)
	})

	// Recording.
	recorderCfg, err := config.Recorder()
	if err != nil {
		return err
	}
	backend, err := recorder.NewBackend(recorderCfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to create recorder backend: %w", err)
	}
	flushInterval, err := time.ParseDuration(recorderCfg.FlushInterval)
	if err != nil {
		return fmt.Errorf("invalid recorder flush interval: %w", err)
	}
	recService := recorder.NewService(backend, flushInterval, recorderCfg.BatchSize, zlog)
	session := recorder.NewSession("bridgehost", schedCfg.FixedDelta)
	if err := recService.Start(session); err != nil {
		return fmt.Errorf("failed to start recorder: %w", err)
	}

	// Monitoring.
	var influxManager *monitor.InfluxManager
	if config.GetBool("influx.enabled") {
		influxManager = monitor.NewInfluxManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			log.Warn("influx unavailable, metrics disabled", "error", err)
			influxManager = nil
		}
	}
	monService := monitor.NewService(monitor.Dependencies{
		Loop:     scheduler,
		Fx:       fxDriver,
		Recorder: recService,
	}, influxManager, time.Second, zlog)
	if err := monService.Start(); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFor)
		defer cancel()
	}

	log.Info("bridge host running",
		"fixedDelta", schedCfg.FixedDelta,
		"recorder", recorderCfg.Backend,
		"influx", influxManager != nil)

	// Frame loop. One iteration is: advance fixed ticks, apply drained
	// commands to the scene, age effects, then run the render systems.
	frame := time.NewTicker(16 * time.Millisecond)
	defer frame.Stop()

	last := time.Now()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-frame.C:
			dt := now.Sub(last).Seconds()
			last = now

			scheduler.StepFixed(dt)
			tick := scheduler.TickCount()

			if len(tappedEvents) > 0 {
				recService.TapEvents(tappedEvents, tick)
				tappedEvents = nil
			}

			drained := scheduler.FlushCommands()
			present.apply(drained)
			recService.TapCommands(drained, tick)

			fxDriver.Update(dt)
			scheduler.StepRender(dt)
		}
	}

	log.Info("shutting down", "ticks", scheduler.TickCount())

	monService.Stop()
	if influxManager != nil {
		influxManager.Close()
	}
	if err := recService.Stop(); err != nil {
		log.Error("recorder shutdown failed", "error", err)
	}
	fxDriver.Clear()
	viewPool.Clear()
	nodeBinder.Clear()

	return nil
}

// presentation translates drained commands into scene mutations.
type presentation struct {
	pool   *pool.ViewPool
	binder *binder.NodeBinder
	log    *slog.Logger
}

func (p *presentation) apply(cmds []core.Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case core.SpawnView:
			node, ok := p.pool.Get(c.PrefabKey)
			if !ok {
				p.log.Warn("prefab not loaded, view dropped", "key", c.PrefabKey)
				continue
			}
			node.SetPosition(c.Position)
			p.binder.Bind(node, c.Handle)
		case core.SetPosition:
			for _, node := range p.binder.NodesFor(c.Handle) {
				node.SetPosition(c.Position)
			}
		case core.PlayAnim:
			p.log.Debug("play anim", "handle", c.Handle.ID, "name", c.Name)
		case core.DestroyView:
			for _, node := range p.binder.NodesFor(c.Handle) {
				p.binder.Unbind(node)
				p.pool.Release(node)
			}
		}
	}
}
