// Package command buffers render commands produced during simulation ticks
// until the presentation layer drains them once per frame.
package command

import (
	"github.com/simstage/bridge/pkg/core"
)

// Buffer is a FIFO of render commands with single-writer-per-tick,
// single-reader-per-frame discipline. It is not safe for concurrent use; the
// producer phase (simulation tick) and consumer phase (presentation frame) must
// not interleave. The buffer is unbounded within a tick; callers are
// responsible for draining every frame.
type Buffer struct {
	commands []core.Command
}

// NewBuffer creates an empty command buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Push appends a command in FIFO order. Nil commands are dropped.
func (b *Buffer) Push(cmd core.Command) {
	if cmd == nil {
		return
	}
	b.commands = append(b.commands, cmd)
}

// Flush returns independent copies of all buffered commands in push order and
// empties the buffer. Mutating a returned command never affects buffer state.
// Flushing an empty buffer returns an empty slice.
func (b *Buffer) Flush() []core.Command {
	out := make([]core.Command, len(b.commands))
	for i, cmd := range b.commands {
		out[i] = cmd.Clone()
	}
	b.commands = b.commands[:0]
	return out
}

// Clear discards all buffered commands without returning them.
func (b *Buffer) Clear() {
	b.commands = b.commands[:0]
}

// Count returns the number of buffered commands.
func (b *Buffer) Count() int {
	return len(b.commands)
}
