package recorder

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileConfig holds settings for the file archive backend.
type FileConfig struct {
	OutputDir      string
	CompressOutput bool
}

// sessionExport is the root JSON structure written on EndSession.
type sessionExport struct {
	Session  exportSession `json:"session"`
	Commands []CommandRow  `json:"commands"`
	Events   []EventRow    `json:"events"`
}

type exportSession struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	StartedAt  string  `json:"startedAt"`
	FixedDelta float64 `json:"fixedDelta"`
	EndTick    uint64  `json:"endTick"`
}

// FileBackend accumulates the session in memory and exports it to a JSON
// file when the session ends.
type FileBackend struct {
	cfg FileConfig

	mu       sync.Mutex
	session  Session
	commands []CommandRow
	events   []EventRow
	lastTick uint64

	lastExportPath string
}

// NewFileBackend creates a file archive backend.
func NewFileBackend(cfg FileConfig) *FileBackend {
	return &FileBackend{cfg: cfg}
}

// Init initializes the backend.
func (b *FileBackend) Init() error {
	if b.cfg.OutputDir == "" {
		return fmt.Errorf("output directory not set")
	}
	return nil
}

// Close cleans up resources.
func (b *FileBackend) Close() error {
	return nil
}

// StartSession begins accumulating a new session.
func (b *FileBackend) StartSession(s Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.commands = nil
	b.events = nil
	b.lastTick = 0
	return nil
}

// EndSession writes the accumulated session to disk.
func (b *FileBackend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.export()
}

// RecordCommands accumulates one tick's drained commands.
func (b *FileBackend) RecordCommands(batch CommandBatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if batch.Tick > b.lastTick {
		b.lastTick = batch.Tick
	}
	for _, cmd := range batch.Commands {
		row, err := CommandToRow(b.session.ID, batch.Tick, cmd)
		if err != nil {
			return err
		}
		b.commands = append(b.commands, row)
	}
	return nil
}

// RecordEvents accumulates one tick's delivered events.
func (b *FileBackend) RecordEvents(batch EventBatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if batch.Tick > b.lastTick {
		b.lastTick = batch.Tick
	}
	for _, evt := range batch.Events {
		row, err := EventToRow(b.session.ID, batch.Tick, evt)
		if err != nil {
			return err
		}
		b.events = append(b.events, row)
	}
	return nil
}

// ExportedFilePath returns the path of the last exported session file.
func (b *FileBackend) ExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastExportPath
}

func (b *FileBackend) export() error {
	export := sessionExport{
		Session: exportSession{
			ID:         b.session.ID.String(),
			Name:       b.session.Name,
			StartedAt:  b.session.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			FixedDelta: b.session.FixedDelta,
			EndTick:    b.lastTick,
		},
		Commands: b.commands,
		Events:   b.events,
	}

	name := strings.ReplaceAll(b.session.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := b.session.StartedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(v); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gz.Close()
}
