package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stage represents a pipeline stage
type Stage string

const (
	StageMeasure   Stage = "measure"
	StageResolve   Stage = "resolve"
	StageExport    Stage = "export"
	StageReanalyze Stage = "reanalyze"
	StageDone      Stage = "done"
)

// Update holds a progress update for one file in a batch
type Update struct {
	File      string
	Stage     Stage
	Index     int // zero-based position in the batch
	Total     int
	Message   string
	Timestamp time.Time
}

// Reporter is the interface for progress reporting
type Reporter interface {
	Report(update Update)
}

// ChannelReporter sends updates to a channel
type ChannelReporter struct {
	ch chan<- Update
}

// NewChannelReporter creates a reporter that sends updates to ch
func NewChannelReporter(ch chan<- Update) *ChannelReporter {
	return &ChannelReporter{ch: ch}
}

func (r *ChannelReporter) Report(update Update) {
	select {
	case r.ch <- update:
	default: // non-blocking: drop if channel is full
	}
}

// WriterReporter prints one line per update, used by the CLI
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

func (r *WriterReporter) Report(update Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%d/%d] %s: %s %s\n",
		update.Index+1, update.Total, update.File, update.Stage, update.Message)
}

// MultiReporter fans out to multiple reporters
type MultiReporter struct {
	mu        sync.RWMutex
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

func (m *MultiReporter) Add(r Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

func (m *MultiReporter) Report(update Update) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reporters {
		r.Report(update)
	}
}

// NoopReporter discards all updates
type NoopReporter struct{}

func (n NoopReporter) Report(_ Update) {}
