package terrastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeOperation_Empty(t *testing.T) {
	conn := &stubConnection{
		entries: func(any) ([]Entry, error) { return []Entry{}, nil },
	}
	client := newStubClient(t, conn)

	values, err := Collect[user](context.Background(), client.Bucket("users").Range().From("a").To("b"))
	require.NoError(t, err)
	require.NotNil(t, values)
	assert.Equal(t, 0, values.Len())
	assert.Empty(t, values.Keys())
	assert.Empty(t, values.Map())
}

func TestRangeOperation_Build(t *testing.T) {
	client := newStubClient(t, &stubConnection{})
	base := client.Bucket("users").Range().From("a")

	c, err := base.To("m").Comparator("lexical-desc").Limit(10).TimeToLive(time.Second).Conditionally("field:a=b").Build()
	require.NoError(t, err)
	assert.Equal(t, "users", c.Bucket())
	assert.Equal(t, "a", c.StartKey())
	assert.Equal(t, "m", c.EndKey())
	assert.Equal(t, "lexical-desc", c.Comparator())
	assert.Equal(t, 10, c.Limit())
	assert.Equal(t, time.Second, c.TimeToLive())
	assert.Equal(t, "field:a=b", c.Predicate())

	// The base operation is left untouched by derived ones
	c, err = base.Build()
	require.NoError(t, err)
	assert.Equal(t, RangeContext{bucket: "users", startKey: "a"}, c)

	invalid := map[string]RangeOperation{
		"no start key":   client.Bucket("users").Range().To("m"),
		"no bucket":      client.Bucket("").Range().From("a"),
		"negative limit": base.Limit(-1),
		"negative ttl":   base.TimeToLive(-time.Second),
		"bad predicate":  base.Conditionally("nocolon"),
	}
	for name, op := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := op.Build()
			require.True(t, IsConfig(err), "got %v", err)
		})
	}
}

func TestQueries_Order(t *testing.T) {
	conn := &stubConnection{
		entries: func(any) ([]Entry, error) {
			return []Entry{
				{Key: "zeta", Document: Document(`{"name":"Z"}`)},
				{Key: "alpha", Document: Document(`{"name":"A"}`)},
				{Key: "mid", Document: Document(`{"name":"M"}`)},
			}, nil
		},
	}
	client := newStubClient(t, conn)
	ctx := context.Background()

	queries := map[string]Query{
		"values":    client.Bucket("users").Values().Limit(3),
		"range":     client.Bucket("users").Range().From("a"),
		"predicate": client.Bucket("users").Predicate("field:name=A"),
	}
	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			values, err := Collect[user](ctx, q)
			require.NoError(t, err)
			require.Equal(t, []string{"zeta", "alpha", "mid"}, values.Keys())

			var names []string
			for _, u := range values.All() {
				names = append(names, u.Name)
			}
			require.Equal(t, []string{"Z", "A", "M"}, names)

			a, ok := values.Get("alpha")
			require.True(t, ok)
			require.Equal(t, "A", a.Name)
		})
	}

	calls := conn.recorded()
	require.Len(t, calls, 3)
}

func TestQueries_Contexts(t *testing.T) {
	conn := &stubConnection{}
	client := newStubClient(t, conn)
	ctx := context.Background()

	_, err := client.Bucket("users").Values().Limit(5).Entries(ctx)
	require.NoError(t, err)
	_, err = client.Bucket("users").Predicate("field:name=A").Entries(ctx)
	require.NoError(t, err)

	calls := conn.recorded()
	assert.Equal(t, ValuesContext{bucket: "users", limit: 5}, calls[0])
	assert.Equal(t, PredicateContext{bucket: "users", predicate: "field:name=A"}, calls[1])

	_, err = client.Bucket("users").Values().Limit(-1).Entries(ctx)
	require.True(t, IsConfig(err))
	_, err = client.Bucket("users").Predicate("").Entries(ctx)
	require.True(t, IsConfig(err))
	_, err = client.Bucket("").Values().Entries(ctx)
	require.True(t, IsConfig(err))
	assert.Len(t, conn.recorded(), 2)
}

func TestCollect_Errors(t *testing.T) {
	conn := &stubConnection{err: &RequestError{Status: StatusUnavailable}}
	client := newStubClient(t, conn)

	_, err := Collect[user](context.Background(), client.Bucket("users").Values())
	require.True(t, Retryable(err))

	conn = &stubConnection{
		entries: func(any) ([]Entry, error) {
			return []Entry{{Key: "k", Document: Document(`[1,2]`)}}, nil
		},
	}
	client = newStubClient(t, conn)
	_, err = Collect[user](context.Background(), client.Bucket("users").Values())
	require.True(t, IsTransport(err))
}

func TestBackupOperation(t *testing.T) {
	conn := &stubConnection{}
	client := newStubClient(t, conn)
	ctx := context.Background()

	backup := client.Bucket("users").Backup("users.bak").SecretKey("SECRET-KEY")
	require.NoError(t, backup.Export(ctx))
	require.NoError(t, backup.Import(ctx))

	want := BackupContext{bucket: "users", file: "users.bak", secretKey: "SECRET-KEY"}
	assert.Equal(t, []any{want, want}, conn.recorded())

	err := client.Bucket("users").Backup("").Export(ctx)
	require.True(t, IsConfig(err))
	assert.Len(t, conn.recorded(), 2)
}
