package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/simstage/bridge/internal/database"
	"github.com/simstage/bridge/internal/queue"
)

// GormConfig holds settings for the database-backed archive.
type GormConfig struct {
	FlushInterval time.Duration
	// DumpInterval and DumpPath enable periodic VACUUM INTO snapshots when
	// the backing database is in-memory SQLite.
	DumpInterval time.Duration
	DumpPath     string
}

// gormQueues holds the write queues for batch DB insertion.
type gormQueues struct {
	Commands *queue.Queue[CommandRow]
	Events   *queue.Queue[EventRow]
}

func newGormQueues() *gormQueues {
	return &gormQueues{
		Commands: queue.New[CommandRow](),
		Events:   queue.New[EventRow](),
	}
}

// GormBackend implements Backend on a GORM database with queue-based batch
// writes. It serves both Postgres and in-memory SQLite; the SQLite case adds
// a periodic disk dump.
type GormBackend struct {
	db  *database.Manager
	cfg GormConfig
	log zerolog.Logger

	queues   *gormQueues
	stopChan chan struct{}

	mu       sync.Mutex
	session  Session
	lastTick uint64

	lastWriteDuration time.Duration
}

// NewGormBackend creates a database archive backend on an established
// database manager.
func NewGormBackend(db *database.Manager, cfg GormConfig, log zerolog.Logger) *GormBackend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	return &GormBackend{
		db:  db,
		cfg: cfg,
		log: log,
	}
}

// Init migrates the schema and starts the writer goroutine. When the
// database is in-memory SQLite and a dump path is configured, it also
// starts the periodic disk dump.
func (b *GormBackend) Init() error {
	if b.db == nil || !b.db.IsValid {
		return fmt.Errorf("database manager not valid")
	}

	if err := b.db.DB.AutoMigrate(DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate archive schema: %w", err)
	}

	b.queues = newGormQueues()
	b.stopChan = make(chan struct{})

	go b.writeLoop()
	if b.db.LocalOnly && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.db.SqliteFilePath = b.cfg.DumpPath
		go b.dumpLoop()
	}

	return nil
}

// Close stops the background goroutines, drains the queues, and takes a
// final disk snapshot for in-memory databases.
func (b *GormBackend) Close() error {
	close(b.stopChan)
	b.drain()

	if b.db.LocalOnly && b.db.SqliteFilePath != "" {
		if err := b.db.DumpMemoryToDisk(); err != nil {
			b.log.Error().Err(err).Msg("Final disk dump failed")
		}
	}
	return nil
}

// StartSession inserts the session row.
func (b *GormBackend) StartSession(s Session) error {
	b.mu.Lock()
	b.session = s
	b.lastTick = 0
	b.mu.Unlock()

	row := SessionRow{
		ID:         s.ID,
		Name:       s.Name,
		StartedAt:  s.StartedAt,
		FixedDelta: s.FixedDelta,
	}
	if err := b.db.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create session row: %w", err)
	}
	return nil
}

// EndSession drains pending rows and stamps the session end.
func (b *GormBackend) EndSession() error {
	b.drain()

	b.mu.Lock()
	id := b.session.ID
	endTick := b.lastTick
	b.mu.Unlock()

	err := b.db.DB.Model(&SessionRow{}).Where("id = ?", id).
		Updates(map[string]any{"ended_at": time.Now(), "end_tick": endTick}).Error
	if err != nil {
		return fmt.Errorf("failed to finalize session row: %w", err)
	}
	return nil
}

// RecordCommands queues one tick's drained commands for batch insertion.
func (b *GormBackend) RecordCommands(batch CommandBatch) error {
	b.mu.Lock()
	id := b.session.ID
	if batch.Tick > b.lastTick {
		b.lastTick = batch.Tick
	}
	b.mu.Unlock()

	rows := make([]CommandRow, 0, len(batch.Commands))
	for _, cmd := range batch.Commands {
		row, err := CommandToRow(id, batch.Tick, cmd)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	b.queues.Commands.Push(rows...)
	return nil
}

// RecordEvents queues one tick's delivered events for batch insertion.
func (b *GormBackend) RecordEvents(batch EventBatch) error {
	b.mu.Lock()
	id := b.session.ID
	if batch.Tick > b.lastTick {
		b.lastTick = batch.Tick
	}
	b.mu.Unlock()

	rows := make([]EventRow, 0, len(batch.Events))
	for _, evt := range batch.Events {
		row, err := EventToRow(id, batch.Tick, evt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	b.queues.Events.Push(rows...)
	return nil
}

// LastDBWriteDuration returns the duration of the last write cycle.
func (b *GormBackend) LastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWriteDuration
}

// QueueDepth returns the number of rows waiting to be written.
func (b *GormBackend) QueueDepth() int {
	if b.queues == nil {
		return 0
	}
	return b.queues.Commands.Len() + b.queues.Events.Len()
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are requeued for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log zerolog.Logger) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		log.Error().Err(err).Str("queue", name).Msg("Error writing archive rows")
		tx.Rollback()
		q.Push(items...)
		return
	}
	tx.Commit()
}

func (b *GormBackend) drain() {
	start := time.Now()
	writeQueue(b.db.DB, b.queues.Commands, "commands", b.log)
	writeQueue(b.db.DB, b.queues.Events, "events", b.log)

	b.mu.Lock()
	b.lastWriteDuration = time.Since(start)
	b.mu.Unlock()
}

// writeLoop periodically drains the row queues into the database.
func (b *GormBackend) writeLoop() {
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.drain()
		}
	}
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO is a point-in-time snapshot, so writers are not
// paused.
func (b *GormBackend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.db.DumpMemoryToDisk(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
