package utils

import (
	"sync"
	"time"
)

// Metrics holds in-process application counters.
type Metrics struct {
	mu sync.RWMutex

	// request counters
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// domain counters
	LearnersCreated    int64
	LearnersDeleted    int64
	PlansReconciled    int64
	PaymentsRecorded   int64
	PaymentsRemoved    int64
	RemindersDelivered int64
	LastDomainOp       time.Time

	// error counters
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics returns the process-wide metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest records latency and outcome of one HTTP request.
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordDomainOp records one named domain operation.
func (m *Metrics) RecordDomainOp(operation string, err error) {
	m.mu.Lock()
	m.LastDomainOp = time.Now()

	switch operation {
	case "learner_create":
		m.LearnersCreated++
	case "learner_delete":
		m.LearnersDeleted++
	case "plan_reconcile":
		m.PlansReconciled++
	case "payment_record":
		m.PaymentsRecorded++
	case "payment_remove":
		m.PaymentsRemoved++
	case "reminder_deliver":
		m.RemindersDelivered++
	}
	m.mu.Unlock()

	if err != nil {
		m.RecordError(err)
	}
}

// RecordError records one error occurrence by message.
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// Snapshot returns a copy of the current counters for the health endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"average_latency":     m.AverageLatency.String(),
		"learners_created":    m.LearnersCreated,
		"learners_deleted":    m.LearnersDeleted,
		"plans_reconciled":    m.PlansReconciled,
		"payments_recorded":   m.PaymentsRecorded,
		"payments_removed":    m.PaymentsRemoved,
		"reminders_delivered": m.RemindersDelivered,
		"error_count":         m.ErrorCount,
		"error_types":         errorTypes,
	}
}
