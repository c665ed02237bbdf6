package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pior/terrastore"
	"github.com/rs/zerolog"
)

// Connection implements terrastore.Connection over the Terrastore HTTP API.
// It is safe for concurrent use.
type Connection struct {
	serverHost string
	nodes      []*node
	selectNode NodeSelector
	httpClient *http.Client
	ownsClient bool
}

var _ terrastore.Connection = (*Connection)(nil)

// NewConnection creates a connection to serverHost and to the configured peers.
// Nothing is sent until the first operation.
func NewConnection(serverHost string, config Config) (*Connection, error) {
	if strings.TrimSpace(serverHost) == "" {
		return nil, &terrastore.ConfigError{Field: "server host", Message: "must not be empty"}
	}
	if config.MaxConcurrentRequests < 0 {
		return nil, &terrastore.ConfigError{Field: "max concurrent requests", Message: "must not be negative"}
	}
	if config.MaxConcurrentRequests == 0 {
		config.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	selectNode := config.SelectNode
	if selectNode == nil {
		selectNode = DefaultNodeSelector
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "rest").Logger()
	}

	httpClient := config.HTTPClient
	ownsClient := false
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
		ownsClient = true
	}

	c := &Connection{
		serverHost: serverHost,
		selectNode: selectNode,
		httpClient: httpClient,
		ownsClient: ownsClient,
	}

	addrs := append([]string{serverHost}, config.Peers...)
	seen := make(map[string]bool, len(addrs))
	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true

		n, err := newNode(addr, config, httpClient, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.nodes = append(c.nodes, n)
	}
	return c, nil
}

// Factory returns a terrastore.ConnectionFactory creating HTTP connections with config.
func Factory(config Config) terrastore.ConnectionFactory {
	return func(serverHost string) (terrastore.Connection, error) {
		conn, err := NewConnection(serverHost, config)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// NewClient creates a terrastore client over an HTTP connection to serverHost.
func NewClient(serverHost string, config Config, clientConfig terrastore.Config) (*terrastore.Client, error) {
	return terrastore.NewClient(serverHost, Factory(config), clientConfig)
}

// ServerHost returns the address the connection was created for.
func (c *Connection) ServerHost() string {
	return c.serverHost
}

// Nodes returns the addresses of all nodes, the server host first.
func (c *Connection) Nodes() []string {
	addrs := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		addrs[i] = n.addr
	}
	return addrs
}

func (c *Connection) GetClusterStats(ctx context.Context) (terrastore.ClusterStats, error) {
	resp, err := c.do(ctx, "", &request{method: http.MethodGet, path: []string{PathStats, PathCluster}})
	if err != nil {
		return terrastore.ClusterStats{}, err
	}
	return decodeClusterStats(resp.Body)
}

func (c *Connection) ClearBucket(ctx context.Context, bucket string) error {
	_, err := c.do(ctx, routingKey(bucket, ""), &request{method: http.MethodDelete, path: []string{bucket}})
	return err
}

func (c *Connection) GetBuckets(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, "", &request{method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	return decodeBuckets(resp.Body)
}

func (c *Connection) PutValue(ctx context.Context, kc terrastore.KeyContext, doc terrastore.Document) error {
	_, err := c.do(ctx, routingKey(kc.Bucket(), kc.Key()), &request{
		method: http.MethodPut,
		path:   []string{kc.Bucket(), kc.Key()},
		body:   []byte(doc),
	})
	return err
}

func (c *Connection) PutValueIf(ctx context.Context, cc terrastore.ConditionalContext, doc terrastore.Document) error {
	_, err := c.do(ctx, routingKey(cc.Bucket(), cc.Key()), &request{
		method: http.MethodPut,
		path:   []string{cc.Bucket(), cc.Key()},
		query:  url.Values{ParamPredicate: {cc.Predicate()}},
		body:   []byte(doc),
	})
	return err
}

func (c *Connection) RemoveValue(ctx context.Context, kc terrastore.KeyContext) error {
	_, err := c.do(ctx, routingKey(kc.Bucket(), kc.Key()), &request{
		method: http.MethodDelete,
		path:   []string{kc.Bucket(), kc.Key()},
	})
	return err
}

func (c *Connection) GetValue(ctx context.Context, kc terrastore.KeyContext) (terrastore.Document, error) {
	resp, err := c.do(ctx, routingKey(kc.Bucket(), kc.Key()), &request{
		method: http.MethodGet,
		path:   []string{kc.Bucket(), kc.Key()},
	})
	if err != nil {
		return nil, err
	}
	return terrastore.Document(resp.Body), nil
}

func (c *Connection) GetValueIf(ctx context.Context, cc terrastore.ConditionalContext) (terrastore.Document, error) {
	resp, err := c.do(ctx, routingKey(cc.Bucket(), cc.Key()), &request{
		method: http.MethodGet,
		path:   []string{cc.Bucket(), cc.Key()},
		query:  url.Values{ParamPredicate: {cc.Predicate()}},
	})
	if err != nil {
		return nil, err
	}
	return terrastore.Document(resp.Body), nil
}

func (c *Connection) GetAllValues(ctx context.Context, vc terrastore.ValuesContext) ([]terrastore.Entry, error) {
	query := url.Values{}
	setInt(query, ParamLimit, vc.Limit())

	resp, err := c.do(ctx, routingKey(vc.Bucket(), ""), &request{
		method: http.MethodGet,
		path:   []string{vc.Bucket()},
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(resp.Body)
}

func (c *Connection) QueryByRange(ctx context.Context, rc terrastore.RangeContext) ([]terrastore.Entry, error) {
	query := url.Values{ParamStartKey: {rc.StartKey()}}
	setString(query, ParamEndKey, rc.EndKey())
	setString(query, ParamComparator, rc.Comparator())
	setString(query, ParamPredicate, rc.Predicate())
	setInt(query, ParamLimit, rc.Limit())
	setMillis(query, ParamTimeToLive, rc.TimeToLive())

	resp, err := c.do(ctx, routingKey(rc.Bucket(), ""), &request{
		method: http.MethodGet,
		path:   []string{rc.Bucket(), PathRange},
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(resp.Body)
}

func (c *Connection) QueryByPredicate(ctx context.Context, pc terrastore.PredicateContext) ([]terrastore.Entry, error) {
	resp, err := c.do(ctx, routingKey(pc.Bucket(), ""), &request{
		method: http.MethodGet,
		path:   []string{pc.Bucket(), PathPredicate},
		query:  url.Values{ParamPredicate: {pc.Predicate()}},
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(resp.Body)
}

func (c *Connection) ExportBackup(ctx context.Context, bc terrastore.BackupContext) error {
	query := url.Values{ParamDestination: {bc.File()}}
	setString(query, ParamSecret, bc.SecretKey())

	_, err := c.do(ctx, routingKey(bc.Bucket(), ""), &request{
		method: http.MethodPost,
		path:   []string{bc.Bucket(), PathExport},
		query:  query,
	})
	return err
}

func (c *Connection) ImportBackup(ctx context.Context, bc terrastore.BackupContext) error {
	query := url.Values{ParamSource: {bc.File()}}
	setString(query, ParamSecret, bc.SecretKey())

	_, err := c.do(ctx, routingKey(bc.Bucket(), ""), &request{
		method: http.MethodPost,
		path:   []string{bc.Bucket(), PathImport},
		query:  query,
	})
	return err
}

func (c *Connection) ExecuteUpdate(ctx context.Context, uc terrastore.UpdateContext) (terrastore.Document, error) {
	body, err := encodeParameters(uc.Parameters())
	if err != nil {
		return nil, err
	}

	query := url.Values{ParamFunction: {string(uc.Function())}}
	setMillis(query, ParamTimeout, uc.Timeout())

	resp, err := c.do(ctx, routingKey(uc.Bucket(), uc.Key()), &request{
		method: http.MethodPost,
		path:   []string{uc.Bucket(), uc.Key(), PathUpdate},
		query:  query,
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	return terrastore.Document(resp.Body), nil
}

// Stats returns a snapshot of every node's statistics.
func (c *Connection) Stats() []NodeStats {
	stats := make([]NodeStats, len(c.nodes))
	for i, n := range c.nodes {
		stats[i] = n.stats()
	}
	return stats
}

// Close releases the nodes. Requests in flight are allowed to finish.
func (c *Connection) Close() error {
	for _, n := range c.nodes {
		n.close()
	}
	if c.ownsClient {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

func (c *Connection) do(ctx context.Context, key string, req *request) (*Response, error) {
	n, err := c.pick(key)
	if err != nil {
		return nil, err
	}
	return n.execute(ctx, req)
}

func (c *Connection) pick(key string) (*node, error) {
	switch len(c.nodes) {
	case 0:
		return nil, &terrastore.TransportError{Op: "send", Err: errors.New("no node available")}
	case 1:
		return c.nodes[0], nil
	}

	i := c.selectNode(key, len(c.nodes))
	if i < 0 || i >= len(c.nodes) {
		return nil, &terrastore.TransportError{Op: "send", Err: errors.New("node selector returned an index out of range")}
	}
	return c.nodes[i], nil
}

func setString(query url.Values, name, value string) {
	if value != "" {
		query.Set(name, value)
	}
}

func setInt(query url.Values, name string, value int) {
	if value > 0 {
		query.Set(name, strconv.Itoa(value))
	}
}

// setMillis rounds d up to whole milliseconds: the server reads 0 as no bound at all.
func setMillis(query url.Values, name string, d time.Duration) {
	if d > 0 {
		ms := (d + time.Millisecond - 1) / time.Millisecond
		query.Set(name, strconv.FormatInt(int64(ms), 10))
	}
}
