package recorder

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/simstage/bridge/internal/config"
	"github.com/simstage/bridge/internal/database"
)

// NewBackend creates an archive backend based on configuration.
func NewBackend(cfg config.RecorderConfig, log zerolog.Logger) (Backend, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}

	flushInterval, err := time.ParseDuration(cfg.FlushInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid flush interval %q: %w", cfg.FlushInterval, err)
	}

	switch cfg.Backend {
	case "postgres", "sqlite":
		db := database.NewManager(log)
		if cfg.Backend == "sqlite" {
			// skip the postgres attempt entirely
			db.LocalOnly = true
			db.DB, err = db.GetSqliteDB("")
			if err != nil {
				return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
			}
			db.IsValid = true
		} else if err := db.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect archive database: %w", err)
		}
		return NewGormBackend(db, GormConfig{
			FlushInterval: flushInterval,
			DumpInterval:  30 * time.Second,
			DumpPath:      filepath.Join(cfg.OutputDir, "bridge_session.db"),
		}, log), nil
	case "file":
		return NewFileBackend(FileConfig{
			OutputDir:      cfg.OutputDir,
			CompressOutput: true,
		}), nil
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown recorder backend: %s", cfg.Backend)
	}
}

// Noop discards everything. Used when recording is disabled.
type Noop struct{}

func (Noop) Init() error                       { return nil }
func (Noop) Close() error                      { return nil }
func (Noop) StartSession(Session) error        { return nil }
func (Noop) EndSession() error                 { return nil }
func (Noop) RecordCommands(CommandBatch) error { return nil }
func (Noop) RecordEvents(EventBatch) error     { return nil }
