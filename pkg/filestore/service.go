// Package filestore is the versioned file store service.
//
// It materializes paths inside a scope's file tree, runs the upload state
// machine of file records (pending, then complete or failed), toggles soft
// deletion, pages version history and deep-copies trees into new scopes when
// a node is forked or registered.
//
// The service is safe for concurrent use. Mutations of one record are
// serialized by a per-record lock on top of the storage transaction, so two
// racing uploads on a record can never both open a pending version.
package filestore

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/audit"
	"github.com/marmos91/dittostore/pkg/blob"
	"github.com/marmos91/dittostore/pkg/metrics"
	"github.com/marmos91/dittostore/pkg/mutexmap"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// DefaultPageSize is the version page size used when callers pass size 0.
const DefaultPageSize = 10

// Service implements the file store operations on top of a filetree.Store.
type Service struct {
	store    filetree.Store
	sink     audit.Sink
	verifier blob.LocationVerifier
	parsers  filetree.Parsers
	metrics  metrics.FileStoreMetrics
	locks    *mutexmap.M
	pageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithAuditSink sets the sink receiving file change events (default: discard).
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithVerifier makes ResolvePendingVersion check the upload location before
// completing a version.
func WithVerifier(v blob.LocationVerifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithParsers replaces the metadata parsers (default: filetree.DefaultParsers).
func WithParsers(p filetree.Parsers) Option {
	return func(s *Service) { s.parsers = p }
}

// WithMetrics records operation metrics (default: no-op).
func WithMetrics(m metrics.FileStoreMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPageSize sets the default version page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a service over store.
func New(store filetree.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sink:     audit.Discard,
		parsers:  filetree.DefaultParsers(),
		metrics:  metrics.NoopFileStoreMetrics{},
		locks:    mutexmap.New(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying repository.
func (s *Service) Store() filetree.Store {
	return s.store
}

// MutationOption tunes a single mutating call.
type MutationOption func(*mutationOptions)

type mutationOptions struct {
	skipAudit bool
}

// SkipAudit suppresses the audit event of the call. Used by bulk or internal
// workflows that log on their own.
func SkipAudit() MutationOption {
	return func(o *mutationOptions) { o.skipAudit = true }
}

func applyMutationOptions(opts []MutationOption) mutationOptions {
	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// observe records the outcome of operation. Use as
// defer s.observe("Op", time.Now(), &err).
func (s *Service) observe(operation string, start time.Time, errp *error) {
	err := *errp
	s.metrics.RecordOperation(operation, time.Since(start), err)
	if code, ok := filetree.CodeOf(err); ok {
		s.metrics.RecordRejection(code.String())
	}
}

// lockRecord serializes mutations of one record.
func (s *Service) lockRecord(ctx context.Context, recordID string) (func(), error) {
	return s.locks.LockContext(ctx, "record:"+recordID)
}

// emit delivers a committed change to the audit sink. Sink failures cannot
// undo the change, so they are logged and dropped.
func (s *Service) emit(ctx context.Context, event audit.Event, opts mutationOptions) {
	if opts.skipAudit || event.Action == "" {
		return
	}
	event.Timestamp = time.Now().UTC()

	if err := s.sink.Record(ctx, event); err != nil {
		logger.Warn("audit: failed to record %s for %s: %v", event.Action, event.Path, err)
	}
}

// newEvent builds the audit event of a record change, resolving the node
// that owns the record's scope.
func newEvent(tx filetree.Tx, rec *filetree.Object, action audit.Action, actor string) (audit.Event, error) {
	scope, err := tx.GetScope(rec.ScopeID)
	if err != nil {
		return audit.Event{}, err
	}
	return audit.Event{
		Action: action,
		Actor:  actor,
		NodeID: scope.OwnerNodeID,
		Path:   rec.Path,
	}, nil
}
