package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Reporter receives row updates from background work. The same work function
// drives either the interactive table or plain line output.
type Reporter interface {
	Update(key string, fields map[string]string)
}

// ProgramReporter forwards updates to a running bubbletea program.
type ProgramReporter struct {
	send func(tea.Msg)
}

// NewProgramReporter wraps the send callback handed out by RunWithWork.
func NewProgramReporter(send func(tea.Msg)) *ProgramReporter {
	return &ProgramReporter{send: send}
}

func (r *ProgramReporter) Update(key string, fields map[string]string) {
	r.send(RowUpdateMsg{Key: key, Fields: fields})
}

// LineReporter prints "<label>: <status>" whenever a row's status changes.
// Labels are registered up front; unknown keys print the key itself.
type LineReporter struct {
	mu     sync.Mutex
	w      io.Writer
	labels map[string]string
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, labels: make(map[string]string)}
}

// Label sets the text printed for key.
func (r *LineReporter) Label(key, label string) {
	r.mu.Lock()
	r.labels[key] = label
	r.mu.Unlock()
}

func (r *LineReporter) Update(key string, fields map[string]string) {
	status, ok := fields[ColumnStatus]
	if !ok || status == StatusPending || status == StatusResolving {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	label := r.labels[key]
	if label == "" {
		label = key
	}
	fmt.Fprintf(r.w, "%s: %s\n", label, status)
}

// NopReporter discards updates.
type NopReporter struct{}

func (NopReporter) Update(string, map[string]string) {}
