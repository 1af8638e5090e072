package command

import "github.com/spaghettifunk/lumen/engine/renderer/metadata"

// Span marks the half-open command range [Start, End) generated for one
// stage of one layer. The sorter only ever reorders inside a span; stage
// boundaries are hard walls.
type Span struct {
	Layer string
	Kind  metadata.StageKind
	Start int
	End   int
}

// Buffer is an append-only command stream partitioned into stage spans. A
// buffer belongs to exactly one frame at a time; buffers are pooled and
// recycled across frames via Reset.
type Buffer struct {
	cmds  []Command
	spans []Span
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Reset empties the buffer for reuse, keeping the backing storage.
func (b *Buffer) Reset() {
	b.cmds = b.cmds[:0]
	b.spans = b.spans[:0]
}

// BeginStage closes the current span, if any, and opens a new one.
func (b *Buffer) BeginStage(layer string, kind metadata.StageKind) {
	b.closeSpan()
	b.spans = append(b.spans, Span{Layer: layer, Kind: kind, Start: len(b.cmds), End: len(b.cmds)})
}

func (b *Buffer) closeSpan() {
	if n := len(b.spans); n > 0 {
		b.spans[n-1].End = len(b.cmds)
	}
}

// Push appends a command to the open stage.
func (b *Buffer) Push(cmd Command) {
	b.cmds = append(b.cmds, cmd)
	b.closeSpan()
}

// Commands returns the underlying command stream. The slice is owned by the
// buffer; callers must not hold it across a Reset.
func (b *Buffer) Commands() []Command {
	return b.cmds
}

// Spans returns the stage partitioning of the stream.
func (b *Buffer) Spans() []Span {
	return b.spans
}

// StageCommands returns the commands of span i as a sub-slice view.
func (b *Buffer) StageCommands(i int) []Command {
	s := b.spans[i]
	return b.cmds[s.Start:s.End]
}

func (b *Buffer) Len() int {
	return len(b.cmds)
}

// DrawCount returns how many draw-class commands the buffer holds.
func (b *Buffer) DrawCount() int {
	n := 0
	for i := range b.cmds {
		if b.cmds[i].Op == OpDraw {
			n++
		}
	}
	return n
}

// Equal reports whether two buffers hold identical streams and partitions.
// Command is a comparable value type, so this is an exact equality, which is
// what the determinism guarantee promises.
func (b *Buffer) Equal(o *Buffer) bool {
	if len(b.cmds) != len(o.cmds) || len(b.spans) != len(o.spans) {
		return false
	}
	for i := range b.cmds {
		if b.cmds[i] != o.cmds[i] {
			return false
		}
	}
	for i := range b.spans {
		if b.spans[i] != o.spans[i] {
			return false
		}
	}
	return true
}
