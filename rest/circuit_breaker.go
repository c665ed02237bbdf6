package rest

import (
	"errors"
	"time"

	"github.com/pior/terrastore"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerConfig returns a function that creates a circuit breaker per node.
// The breaker opens when at least 60% of 3 or more requests failed within interval.
// Only transport failures and 5xx responses count as failures: a missing key or an
// unsatisfied condition says nothing about the node's health. Neither does a request
// whose context the caller cancelled.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(addr string) *gobreaker.CircuitBreaker[*Response] {
	return func(addr string) *gobreaker.CircuitBreaker[*Response] {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: IsNodeHealthy,
		}
		return gobreaker.NewCircuitBreaker[*Response](settings)
	}
}

// IsNodeHealthy reports whether err leaves the node's health intact:
// nil, a request failure with a status below 500, or a failure caused by the
// caller's context being done. A request hitting Config.Timeout still counts
// against the node.
func IsNodeHealthy(err error) bool {
	if err == nil {
		return true
	}
	var callerErr *callerDoneError
	if errors.As(err, &callerErr) {
		return true
	}
	var reqErr *terrastore.RequestError
	return errors.As(err, &reqErr) && reqErr.Status < 500
}

// callerDoneError marks a failure of a request whose context was cancelled or
// expired by the caller.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }
