package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	"github.com/pior/terrastore"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Response buffers growing past this size are dropped instead of being reused.
const maxPooledBufferSize = 1 << 20

// Response is a successful HTTP exchange.
type Response struct {
	Body []byte
}

type request struct {
	method string
	path   []string // unescaped segments
	query  url.Values
	body   []byte
}

// node sends requests to one server, bounded by a pool of response buffers and
// optionally guarded by a circuit breaker.
type node struct {
	addr           string
	baseURL        string
	httpClient     *http.Client
	header         http.Header
	slots          *puddle.Pool[*bytes.Buffer]
	circuitBreaker *gobreaker.CircuitBreaker[*Response]
	log            zerolog.Logger

	requests atomic.Uint64
	failures atomic.Uint64
}

func newNode(addr string, config Config, httpClient *http.Client, logger zerolog.Logger) (*node, error) {
	baseURL, err := parseServerHost(addr)
	if err != nil {
		return nil, err
	}

	slots, err := puddle.NewPool(&puddle.Config[*bytes.Buffer]{
		Constructor: func(ctx context.Context) (*bytes.Buffer, error) {
			return &bytes.Buffer{}, nil
		},
		Destructor: func(*bytes.Buffer) {},
		MaxSize:    config.MaxConcurrentRequests,
	})
	if err != nil {
		return nil, err
	}

	n := &node{
		addr:       addr,
		baseURL:    baseURL,
		httpClient: httpClient,
		header:     config.Header,
		slots:      slots,
		log:        logger.With().Str("node", addr).Logger(),
	}
	if config.NewCircuitBreaker != nil {
		n.circuitBreaker = config.NewCircuitBreaker(addr)
	}
	return n, nil
}

// parseServerHost accepts "host:port" as well as full URLs.
func parseServerHost(addr string) (string, error) {
	raw := strings.TrimSpace(addr)
	if raw == "" {
		return "", &terrastore.ConfigError{Field: "server host", Message: "must not be empty"}
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &terrastore.ConfigError{Field: "server host", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &terrastore.ConfigError{Field: "server host", Message: "unsupported scheme " + u.Scheme}
	}
	if u.Host == "" {
		return "", &terrastore.ConfigError{Field: "server host", Message: "missing host in " + addr}
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// execute performs one request-response exchange, wrapped with the node's circuit breaker.
// Non-2xx statuses are returned as *terrastore.RequestError, every other failure as
// *terrastore.TransportError.
func (n *node) execute(ctx context.Context, req *request) (*Response, error) {
	n.requests.Add(1)

	var resp *Response
	var err error
	if n.circuitBreaker == nil {
		resp, err = n.executeDirect(ctx, req)
	} else {
		resp, err = n.circuitBreaker.Execute(func() (*Response, error) {
			resp, err := n.executeDirect(ctx, req)
			if err != nil && ctx.Err() != nil {
				return nil, &callerDoneError{err: err}
			}
			return resp, err
		})
		var callerErr *callerDoneError
		if errors.As(err, &callerErr) {
			err = callerErr.err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &terrastore.TransportError{Op: "circuit", Err: err}
		}
	}

	if err != nil {
		n.failures.Add(1)
		return nil, err
	}
	return resp, nil
}

// executeDirect performs the exchange without circuit breaker.
func (n *node) executeDirect(ctx context.Context, req *request) (*Response, error) {
	slot, err := n.slots.Acquire(ctx)
	if err != nil {
		return nil, &terrastore.TransportError{Op: "acquire", Err: err}
	}

	start := time.Now()
	status, body, err := n.roundTrip(ctx, req, slot.Value())
	if slot.Value().Cap() > maxPooledBufferSize {
		slot.Destroy()
	} else {
		slot.Release()
	}

	if err != nil {
		n.log.Warn().Str("method", req.method).Str("path", n.path(req)).Err(err).Msg("request failed")
		return nil, err
	}

	n.log.Debug().
		Str("method", req.method).
		Str("path", n.path(req)).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("request")

	if status < 200 || status > 299 {
		return nil, terrastore.NewRequestError(status, body)
	}
	return &Response{Body: body}, nil
}

// roundTrip sends the request and reads the whole response body through buf.
func (n *node) roundTrip(ctx context.Context, req *request, buf *bytes.Buffer) (int, []byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, n.url(req), body)
	if err != nil {
		return 0, nil, &terrastore.TransportError{Op: "send", Err: err}
	}

	for k, values := range n.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &terrastore.TransportError{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	buf.Reset()
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, &terrastore.TransportError{Op: "read", Err: err}
	}
	return resp.StatusCode, bytes.Clone(buf.Bytes()), nil
}

func (n *node) path(req *request) string {
	if len(req.path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range req.path {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

func (n *node) url(req *request) string {
	u := n.baseURL + n.path(req)
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	return u
}

func (n *node) close() {
	n.slots.Close()
}
