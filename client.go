package terrastore

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds optional client settings.
type Config struct {
	// Codec serializes values to and from documents.
	// If nil, JSONCodec is used.
	Codec Codec

	// Logger receives a debug event for every failed operation.
	// If nil, nothing is logged.
	Logger *zerolog.Logger
}

// Client is the entry point to a Terrastore cluster.
//
// Only a single server address is needed: the server routes requests to the node holding
// the data. A Client is immutable once created and safe for concurrent use; operations
// built from it share its Connection.
type Client struct {
	conn  Connection
	codec Codec
	log   zerolog.Logger
	stats *clientStatsCollector
}

// NewClient creates a client bound to the Connection the factory makes for serverHost.
// An empty server host or a nil factory fails with a *ConfigError without calling the factory.
func NewClient(serverHost string, factory ConnectionFactory, config Config) (*Client, error) {
	if strings.TrimSpace(serverHost) == "" {
		return nil, configError("server host", "cannot connect to an empty server address")
	}
	if factory == nil {
		return nil, configError("connection factory", "a connection factory is required")
	}

	codec := config.Codec
	if codec == nil {
		codec = JSONCodec{}
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "terrastore").Logger()
	}

	conn, err := factory(serverHost)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, configError("connection factory", "factory returned no connection for %q", serverHost)
	}

	return &Client{
		conn:  conn,
		codec: codec,
		log:   logger,
		stats: &clientStatsCollector{},
	}, nil
}

// Bucket sets up operations on the named bucket.
func (c *Client) Bucket(name string) BucketOperation {
	return BucketOperation{client: c, bucket: name}
}

// Buckets sets up operations on the collection of buckets.
func (c *Client) Buckets() BucketsOperation {
	return BucketsOperation{client: c}
}

// ClusterStats returns the cluster membership as seen by the server.
func (c *Client) ClusterStats(ctx context.Context) (ClusterStats, error) {
	var stats ClusterStats
	err := c.exec(opAdmin, "", "", func() error {
		var err error
		stats, err = c.conn.GetClusterStats(ctx)
		return err
	})
	return stats, err
}

// ServerHost returns the server address this client communicates with.
func (c *Client) ServerHost() string {
	return c.conn.ServerHost()
}

// Connection returns the connection the client is bound to.
func (c *Client) Connection() Connection {
	return c.conn
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// Close releases the resources held by the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// exec runs one connection call for an already built context and records its outcome.
func (c *Client) exec(kind opKind, bucket, key string, call func() error) error {
	err := call()
	c.stats.record(kind, err)
	if err != nil {
		c.log.Debug().
			Str("op", kind.String()).
			Str("bucket", bucket).
			Str("key", key).
			Err(err).
			Msg("operation failed")
	}
	return err
}

func validateName(field, value string) error {
	if value == "" {
		return configError(field, "must not be empty")
	}
	return nil
}

// validatePredicate checks the type:expression form conditions are written in,
// for example "jxpath:/name[.='Sergio']".
func validatePredicate(predicate string) error {
	typ, expr, ok := strings.Cut(predicate, ":")
	if !ok || typ == "" || expr == "" {
		return configError("predicate", "%q is not of the form type:expression", predicate)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 0 {
		return configError("limit", "must not be negative, got %d", limit)
	}
	return nil
}
