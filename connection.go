package terrastore

import "context"

// Connection is the single point where an operation context becomes one request/response
// exchange with the server. Every method either returns a complete result or fails with a
// *RequestError or *TransportError; implementations never retry.
//
// Implementations must be safe for concurrent use: operations built from the same client
// share one Connection.
type Connection interface {
	// ServerHost returns the address of the server the connection was made for.
	ServerHost() string

	GetClusterStats(ctx context.Context) (ClusterStats, error)
	ClearBucket(ctx context.Context, bucket string) error
	GetBuckets(ctx context.Context) ([]string, error)

	PutValue(ctx context.Context, c KeyContext, doc Document) error
	PutValueIf(ctx context.Context, c ConditionalContext, doc Document) error
	RemoveValue(ctx context.Context, c KeyContext) error
	GetValue(ctx context.Context, c KeyContext) (Document, error)
	GetValueIf(ctx context.Context, c ConditionalContext) (Document, error)

	// Multi-value methods return entries in server order.
	GetAllValues(ctx context.Context, c ValuesContext) ([]Entry, error)
	QueryByRange(ctx context.Context, c RangeContext) ([]Entry, error)
	QueryByPredicate(ctx context.Context, c PredicateContext) ([]Entry, error)

	ExportBackup(ctx context.Context, c BackupContext) error
	ImportBackup(ctx context.Context, c BackupContext) error

	// ExecuteUpdate runs the update function and returns the updated value.
	ExecuteUpdate(ctx context.Context, c UpdateContext) (Document, error)

	Close() error
}

// ConnectionFactory creates the Connection a client is bound to.
type ConnectionFactory func(serverHost string) (Connection, error)

// Entry is a key with its serialized value, as returned by multi-value queries.
type Entry struct {
	Key      string
	Document Document
}

// ClusterStats describes the clusters and nodes the server knows about.
type ClusterStats struct {
	Clusters []Cluster `json:"clusters"`
}

type Cluster struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Nodes  []Node `json:"nodes"`
}

type Node struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NodeCount returns the number of nodes across all clusters.
func (s ClusterStats) NodeCount() int {
	n := 0
	for _, c := range s.Clusters {
		n += len(c.Nodes)
	}
	return n
}
