package terrastore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubConnection records every context it receives and answers with the configured functions.
// Unset functions succeed with an empty result.
type stubConnection struct {
	mu       sync.Mutex
	calls    []any
	closed   bool
	putValue func(KeyContext, Document) error
	getValue func(KeyContext) (Document, error)
	getIf    func(ConditionalContext) (Document, error)
	putIf    func(ConditionalContext, Document) error
	entries  func(any) ([]Entry, error)
	update   func(context.Context, UpdateContext) (Document, error)
	err      error // returned by every method without a function
}

var _ Connection = (*stubConnection)(nil)

func (s *stubConnection) record(c any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *stubConnection) recorded() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.calls...)
}

func (s *stubConnection) ServerHost() string { return "stub:8080" }

func (s *stubConnection) GetClusterStats(ctx context.Context) (ClusterStats, error) {
	s.record("stats")
	return ClusterStats{Clusters: []Cluster{{Name: "c", Nodes: []Node{{Name: "n1"}, {Name: "n2"}}}}}, s.err
}

func (s *stubConnection) ClearBucket(ctx context.Context, bucket string) error {
	s.record(bucket)
	return s.err
}

func (s *stubConnection) GetBuckets(ctx context.Context) ([]string, error) {
	s.record("buckets")
	return nil, s.err
}

func (s *stubConnection) PutValue(ctx context.Context, c KeyContext, doc Document) error {
	s.record(c)
	if s.putValue != nil {
		return s.putValue(c, doc)
	}
	return s.err
}

func (s *stubConnection) PutValueIf(ctx context.Context, c ConditionalContext, doc Document) error {
	s.record(c)
	if s.putIf != nil {
		return s.putIf(c, doc)
	}
	return s.err
}

func (s *stubConnection) RemoveValue(ctx context.Context, c KeyContext) error {
	s.record(c)
	return s.err
}

func (s *stubConnection) GetValue(ctx context.Context, c KeyContext) (Document, error) {
	s.record(c)
	if s.getValue != nil {
		return s.getValue(c)
	}
	return Document(`{}`), s.err
}

func (s *stubConnection) GetValueIf(ctx context.Context, c ConditionalContext) (Document, error) {
	s.record(c)
	if s.getIf != nil {
		return s.getIf(c)
	}
	return Document(`{}`), s.err
}

func (s *stubConnection) query(c any) ([]Entry, error) {
	s.record(c)
	if s.entries != nil {
		return s.entries(c)
	}
	return nil, s.err
}

func (s *stubConnection) GetAllValues(ctx context.Context, c ValuesContext) ([]Entry, error) {
	return s.query(c)
}

func (s *stubConnection) QueryByRange(ctx context.Context, c RangeContext) ([]Entry, error) {
	return s.query(c)
}

func (s *stubConnection) QueryByPredicate(ctx context.Context, c PredicateContext) ([]Entry, error) {
	return s.query(c)
}

func (s *stubConnection) ExportBackup(ctx context.Context, c BackupContext) error {
	s.record(c)
	return s.err
}

func (s *stubConnection) ImportBackup(ctx context.Context, c BackupContext) error {
	s.record(c)
	return s.err
}

func (s *stubConnection) ExecuteUpdate(ctx context.Context, c UpdateContext) (Document, error) {
	s.record(c)
	if s.update != nil {
		return s.update(ctx, c)
	}
	return Document(`{}`), s.err
}

func (s *stubConnection) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newStubClient(t testing.TB, conn *stubConnection) *Client {
	t.Helper()
	client, err := NewClient("stub:8080", func(string) (Connection, error) { return conn, nil }, Config{})
	require.NoError(t, err)
	return client
}
