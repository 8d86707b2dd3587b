package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simstage/bridge/internal/queue"
	"github.com/simstage/bridge/pkg/core"
)

// Service decouples the frame loop from the archive backend. TapCommands
// and TapEvents only push onto in-memory queues; a background goroutine
// hands batches to the backend on an interval.
type Service struct {
	backend   Backend
	log       zerolog.Logger
	interval  time.Duration
	batchSize int

	cmdQueue *queue.Queue[CommandBatch]
	evtQueue *queue.Queue[EventBatch]

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewService creates a recording service over the given backend.
func NewService(backend Backend, interval time.Duration, batchSize int, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 512
	}
	return &Service{
		backend:   backend,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
		cmdQueue:  queue.New[CommandBatch](),
		evtQueue:  queue.New[EventBatch](),
	}
}

// Start initializes the backend, opens the session, and starts the flush
// goroutine.
func (s *Service) Start(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("recorder service already running")
	}

	if err := s.backend.Init(); err != nil {
		return fmt.Errorf("failed to init archive backend: %w", err)
	}
	if err := s.backend.StartSession(session); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	s.stopChan = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.flushLoop()

	s.log.Info().Str("session", session.ID.String()).Str("name", session.Name).Msg("Recording session started")
	return nil
}

// Stop drains the queues, ends the session, and closes the backend.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	for s.cmdQueue.Len() > 0 || s.evtQueue.Len() > 0 {
		s.flush()
	}

	if err := s.backend.EndSession(); err != nil {
		s.log.Error().Err(err).Msg("Failed to end recording session")
	}
	return s.backend.Close()
}

// TapCommands records one tick's drained commands. It never blocks the
// frame loop; empty batches are skipped.
func (s *Service) TapCommands(cmds []core.Command, tick uint64) {
	if len(cmds) == 0 {
		return
	}
	s.cmdQueue.Push(CommandBatch{Tick: tick, Commands: cmds})
}

// TapEvents records one tick's delivered events.
func (s *Service) TapEvents(events []core.Event, tick uint64) {
	if len(events) == 0 {
		return
	}
	s.evtQueue.Push(EventBatch{Tick: tick, Events: events})
}

// QueueDepth returns the number of pending batches.
func (s *Service) QueueDepth() int {
	return s.cmdQueue.Len() + s.evtQueue.Len()
}

// flush hands pending batches to the backend, a bounded number per cycle so
// a burst cannot pin the goroutine.
func (s *Service) flush() {
	for _, batch := range s.cmdQueue.PopBatch(s.batchSize) {
		if err := s.backend.RecordCommands(batch); err != nil {
			s.log.Error().Err(err).Uint64("tick", batch.Tick).Msg("Failed to record commands")
		}
	}
	for _, batch := range s.evtQueue.PopBatch(s.batchSize) {
		if err := s.backend.RecordEvents(batch); err != nil {
			s.log.Error().Err(err).Uint64("tick", batch.Tick).Msg("Failed to record events")
		}
	}
}

func (s *Service) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.flush()
		}
	}
}
