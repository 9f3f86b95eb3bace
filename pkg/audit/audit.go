// Package audit defines the events a file store emits for user-visible file
// changes and the sinks that receive them.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
)

// Action names a user-visible file change.
type Action string

const (
	FileAdded    Action = "FILE_ADDED"
	FileUpdated  Action = "FILE_UPDATED"
	FileRemoved  Action = "FILE_REMOVED"
	FileRestored Action = "FILE_RESTORED"
	UploadFailed Action = "UPLOAD_FAILED"
)

// Event is one audit log entry.
type Event struct {
	Action Action

	// Actor is the user the change is attributed to
	Actor string

	// NodeID is the owner node of the scope the file lives in
	NodeID string

	Path      string
	Timestamp time.Time
}

// Sink receives audit events after the change they describe was committed.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// LoggerSink writes events as structured log lines.
type LoggerSink struct{}

func NewLoggerSink() *LoggerSink {
	return &LoggerSink{}
}

func (LoggerSink) Record(_ context.Context, event Event) error {
	logger.Event(logger.LevelInfo, "audit",
		"action", string(event.Action),
		"actor", event.Actor,
		"node", event.NodeID,
		"path", event.Path,
		"timestamp", event.Timestamp,
	)
	return nil
}

// Recorder keeps events in memory, in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Record(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Actions returns the recorded actions, in order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := make([]Action, len(r.events))
	for i, e := range r.events {
		actions[i] = e.Action
	}
	return actions
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// multiSink delivers to every sink even when some fail.
type multiSink []Sink

// Multi fans events out to sinks. Errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
