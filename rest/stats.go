package rest

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// NodeStats contains statistics about one node of a connection.
//
// For Prometheus integration, see the metrics package:
//   - Gauges: InFlight, CircuitBreakerState
//   - Counters: Requests, Failures
type NodeStats struct {
	Addr string

	Requests uint64 // Requests sent to the node, including rejected by the circuit breaker
	Failures uint64 // Requests that failed, whatever the reason

	InFlight         int32         // Requests holding a slot
	MaxInFlight      int32         // Slots available
	AcquireCount     int64         // Slots acquired
	AcquireWaitCount int64         // Acquires that had to wait for a slot
	AcquireWaitTime  time.Duration // Total time spent waiting for a slot

	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (n *node) stats() NodeStats {
	s := n.slots.Stat()

	stats := NodeStats{
		Addr:             n.addr,
		Requests:         n.requests.Load(),
		Failures:         n.failures.Load(),
		InFlight:         s.AcquiredResources(),
		MaxInFlight:      s.MaxResources(),
		AcquireCount:     s.AcquireCount(),
		AcquireWaitCount: s.EmptyAcquireCount(),
		AcquireWaitTime:  s.AcquireDuration(),
	}
	if n.circuitBreaker != nil {
		stats.CircuitBreakerState = n.circuitBreaker.State()
		stats.CircuitBreakerCounts = n.circuitBreaker.Counts()
	}
	return stats
}
