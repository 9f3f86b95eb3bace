package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileStoreMetrics provides observability for file store operations.
//
// This interface is optional - a service constructed without it records
// nothing.
type FileStoreMetrics interface {
	// RecordOperation records a completed service operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "CreatePendingVersion", "CopyContentsTo")
	//   - duration: Time taken to complete the operation
	//   - err: Error if the operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordRejection records a domain error by its code name
	// (e.g., "PathLocked", "SignatureConsumed").
	RecordRejection(code string)

	// RecordVersionTransition records a version reaching a status
	// ("pending", "complete", "failed").
	RecordVersionTransition(status string)

	// RecordCopy records one copy engine run.
	//
	// Parameters:
	//   - copied: Objects written to the destination scope
	//   - dropped: Records dropped because no complete version remained
	RecordCopy(copied, dropped int)
}

type fileStoreMetrics struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	rejectionsTotal    *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	copiedObjectsTotal prometheus.Counter
	droppedRecords     prometheus.Counter
}

var (
	fileStoreOnce     sync.Once
	fileStoreInstance FileStoreMetrics
)

// NewFileStoreMetrics returns the file store metrics bound to the global
// registry, or a no-op implementation when metrics are disabled.
//
// The instance is shared: collectors can only be registered once per registry.
func NewFileStoreMetrics() FileStoreMetrics {
	if !IsEnabled() {
		return NoopFileStoreMetrics{}
	}

	fileStoreOnce.Do(func() {
		fileStoreInstance = NewFileStoreMetricsWith(GetRegistry())
	})
	return fileStoreInstance
}

// NewFileStoreMetricsWith registers file store collectors on reg.
func NewFileStoreMetricsWith(reg prometheus.Registerer) FileStoreMetrics {
	factory := promauto.With(reg)

	return &fileStoreMetrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filestore_operations_total",
				Help:      "Total number of file store operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "filestore_operation_duration_seconds",
				Help:      "Duration of file store operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s (large copies)
				},
			},
			[]string{"operation"},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filestore_rejections_total",
				Help:      "Domain errors returned to callers by error code",
			},
			[]string{"code"},
		),
		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filestore_version_transitions_total",
				Help:      "File versions entering each status",
			},
			[]string{"status"},
		),
		copiedObjectsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filestore_copied_objects_total",
				Help:      "Objects written to destination scopes by the copy engine",
			},
		),
		droppedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filestore_copy_dropped_records_total",
				Help:      "Records left out of copies for lack of a complete version",
			},
		),
	}
}

func (m *fileStoreMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *fileStoreMetrics) RecordRejection(code string) {
	m.rejectionsTotal.WithLabelValues(code).Inc()
}

func (m *fileStoreMetrics) RecordVersionTransition(status string) {
	m.transitionsTotal.WithLabelValues(status).Inc()
}

func (m *fileStoreMetrics) RecordCopy(copied, dropped int) {
	m.copiedObjectsTotal.Add(float64(copied))
	m.droppedRecords.Add(float64(dropped))
}

// NoopFileStoreMetrics discards everything.
type NoopFileStoreMetrics struct{}

func (NoopFileStoreMetrics) RecordOperation(string, time.Duration, error) {}
func (NoopFileStoreMetrics) RecordRejection(string)                       {}
func (NoopFileStoreMetrics) RecordVersionTransition(string)               {}
func (NoopFileStoreMetrics) RecordCopy(int, int)                          {}
