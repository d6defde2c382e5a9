// Package observability collects lightweight counters for the message
// pipelines, for logging and out-of-band inspection.
package observability

import (
	"sync"
	"sync/atomic"
)

// Metrics aggregates message pipeline counters across all streams.
type Metrics struct {
	mu sync.Mutex

	processedTotal    atomic.Int64
	failedTotal       atomic.Int64
	deadLetteredTotal atomic.Int64
	retryTotal        atomic.Int64

	streamMetrics map[string]*StreamMetrics
}

// StreamMetrics represents counters for a single stream.
type StreamMetrics struct {
	processed    atomic.Int64
	failed       atomic.Int64
	deadLettered atomic.Int64
	retries      atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		streamMetrics: make(map[string]*StreamMetrics),
	}
}

// RecordProcessed records a successfully processed message.
func (m *Metrics) RecordProcessed(stream string) {
	m.processedTotal.Add(1)
	m.getStreamMetrics(stream).processed.Add(1)
}

// RecordFailed records a terminally failed message (validation failure or
// retry exhaustion).
func (m *Metrics) RecordFailed(stream string) {
	m.failedTotal.Add(1)
	m.getStreamMetrics(stream).failed.Add(1)
}

// RecordDeadLettered records a message routed to the dead-letter stream.
func (m *Metrics) RecordDeadLettered(stream string) {
	m.deadLetteredTotal.Add(1)
	m.getStreamMetrics(stream).deadLettered.Add(1)
}

// RecordRetry records one retried handler attempt.
func (m *Metrics) RecordRetry(stream string) {
	m.retryTotal.Add(1)
	m.getStreamMetrics(stream).retries.Add(1)
}

// GetProcessedTotal returns the total number of processed messages.
func (m *Metrics) GetProcessedTotal() int64 {
	return m.processedTotal.Load()
}

// GetFailedTotal returns the total number of terminally failed messages.
func (m *Metrics) GetFailedTotal() int64 {
	return m.failedTotal.Load()
}

// GetDeadLetteredTotal returns the total number of dead-lettered messages.
func (m *Metrics) GetDeadLetteredTotal() int64 {
	return m.deadLetteredTotal.Load()
}

// GetRetryTotal returns the total number of retried attempts.
func (m *Metrics) GetRetryTotal() int64 {
	return m.retryTotal.Load()
}

// GetStreamMetrics returns metrics for a specific stream.
func (m *Metrics) GetStreamMetrics(stream string) *StreamMetrics {
	return m.getStreamMetrics(stream)
}

func (m *Metrics) getStreamMetrics(stream string) *StreamMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.streamMetrics[stream]
	if !ok {
		sm = &StreamMetrics{}
		m.streamMetrics[stream] = sm
	}
	return sm
}

// Processed returns the number of processed messages on this stream.
func (sm *StreamMetrics) Processed() int64 { return sm.processed.Load() }

// Failed returns the number of terminally failed messages on this stream.
func (sm *StreamMetrics) Failed() int64 { return sm.failed.Load() }

// DeadLettered returns the number of dead-lettered messages on this stream.
func (sm *StreamMetrics) DeadLettered() int64 { return sm.deadLettered.Load() }

// Retries returns the number of retried attempts on this stream.
func (sm *StreamMetrics) Retries() int64 { return sm.retries.Load() }
