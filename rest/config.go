package rest

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultTimeout               = 10 * time.Second
	DefaultMaxConcurrentRequests = 32
)

// Config holds configuration for the HTTP connection.
type Config struct {
	// HTTPClient sends the requests.
	// If nil, a client with Timeout is created.
	HTTPClient *http.Client

	// Timeout bounds a whole exchange when HTTPClient is nil.
	// It must exceed the timeouts given to update operations.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// Peers are addresses of other nodes of the same cluster.
	// Requests are spread over the server host and its peers with SelectNode.
	Peers []string

	// MaxConcurrentRequests is the maximum number of requests in flight per node.
	// Further requests wait for a slot or for their context to end.
	// Zero means DefaultMaxConcurrentRequests.
	MaxConcurrentRequests int32

	// SelectNode picks the node serving a request.
	// If nil, uses DefaultNodeSelector.
	SelectNode NodeSelector

	// NewCircuitBreaker creates a circuit breaker for a node.
	// Called once per node address when the connection is created.
	// If nil, no circuit breaker is used. See NewCircuitBreakerConfig.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[*Response]

	// Header is added to every request.
	Header http.Header

	// Logger receives a debug event per request and a warning per transport failure.
	// If nil, nothing is logged.
	Logger *zerolog.Logger
}
