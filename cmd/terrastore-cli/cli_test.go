package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/pior/terrastore/internal/terrastoretest"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	rc     int
	stdout string
	stderr string
}

func runCli(t *testing.T, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	config := &Config{
		Name:   "terrastore-cli",
		Exit:   func(int) { t.Fatalf("unexpected exit: %s", stderr.String()) },
		Stdout: &stdout,
		Stderr: &stderr,
	}
	rc := Cli(args, config)
	return cliResult{rc: rc, stdout: stdout.String(), stderr: stderr.String()}
}

func TestCli(t *testing.T) {
	srv := terrastoretest.NewServer()
	defer srv.Close()
	server := "--server=" + srv.URL

	res := runCli(t, server, "put", "users", "sergio", `{"name":"Sergio","role":"admin"}`)
	require.Equal(t, 0, res.rc, res.stderr)

	res = runCli(t, server, "get", "users", "sergio")
	require.Equal(t, 0, res.rc, res.stderr)
	require.JSONEq(t, `{"name":"Sergio","role":"admin"}`, res.stdout)

	res = runCli(t, server, "get", "users", "sergio", "--predicate", "field:role=guest")
	require.Equal(t, 1, res.rc)
	require.Contains(t, res.stderr, "condition not satisfied")

	res = runCli(t, server, "get", "users", "ghost")
	require.Equal(t, 1, res.rc)
	require.Contains(t, res.stderr, "not found")

	res = runCli(t, server, "put", "users", "sven", `{"name":"Sven","role":"guest"}`)
	require.Equal(t, 0, res.rc, res.stderr)

	res = runCli(t, server, "buckets")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Equal(t, "users\n", res.stdout)

	res = runCli(t, server, "values", "users")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Equal(t, "sergio\t{\"name\":\"Sergio\",\"role\":\"admin\"}\nsven\t{\"name\":\"Sven\",\"role\":\"guest\"}\n", res.stdout)

	res = runCli(t, server, "range", "users", "--from", "s", "--to", "sergio")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Equal(t, "sergio\t{\"name\":\"Sergio\",\"role\":\"admin\"}\n", res.stdout)

	res = runCli(t, server, "query", "users", "field:role=guest")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Equal(t, "sven\t{\"name\":\"Sven\",\"role\":\"guest\"}\n", res.stdout)

	res = runCli(t, server, "remove", "users", "sven")
	require.Equal(t, 0, res.rc, res.stderr)
	_, ok := srv.Value("users", "sven")
	require.False(t, ok)

	res = runCli(t, server, "stats")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Contains(t, res.stdout, "cluster-1\tAVAILABLE")

	res = runCli(t, server, "nodes")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Contains(t, res.stdout, srv.URL)
}

func TestCli_Update(t *testing.T) {
	srv := terrastoretest.NewServer()
	defer srv.Close()
	srv.Put("counters", "visits", `{"home":1}`)
	server := "--server=" + srv.URL

	res := runCli(t, server, "update", "counters", "visits", "--function", "counter", "--param", "home=2")
	require.Equal(t, 0, res.rc, res.stderr)
	require.JSONEq(t, `{"home":3}`, res.stdout)

	srv.SetFunctionLatency(200 * time.Millisecond)
	res = runCli(t, server, "update", "counters", "visits", "--function", "counter", "--param", "home=2", "--timeout", "50ms")
	require.Equal(t, 1, res.rc)
	require.Contains(t, res.stderr, "update timed out")
}

func TestCli_Backup(t *testing.T) {
	srv := terrastoretest.NewServer()
	defer srv.Close()
	srv.Put("users", "sergio", `{"name":"Sergio"}`)
	server := "--server=" + srv.URL

	res := runCli(t, server, "export", "users", "users.bak", "--secret", "wrong")
	require.Equal(t, 1, res.rc)
	require.Contains(t, res.stderr, "bad secret key")

	res = runCli(t, server, "export", "users", "users.bak")
	require.Equal(t, 0, res.rc, res.stderr)

	res = runCli(t, server, "clear", "users")
	require.Equal(t, 0, res.rc, res.stderr)
	_, ok := srv.Value("users", "sergio")
	require.False(t, ok)

	res = runCli(t, server, "import", "users", "users.bak")
	require.Equal(t, 0, res.rc, res.stderr)
	_, ok = srv.Value("users", "sergio")
	require.True(t, ok)
}

func TestCli_UsageErrors(t *testing.T) {
	srv := terrastoretest.NewServer()
	defer srv.Close()
	server := "--server=" + srv.URL

	res := runCli(t, server, "put", "users", "k", "not json")
	require.Equal(t, 2, res.rc)
	require.Equal(t, 0, srv.RequestCount())

	res = runCli(t, server, "get", "users", "k", "--predicate", "nocolon")
	require.Equal(t, 2, res.rc)
	require.Equal(t, 0, srv.RequestCount())

	res = runCli(t, "--server=ftp://nowhere", "buckets")
	require.Equal(t, 2, res.rc)
}

func TestCli_Verbose(t *testing.T) {
	srv := terrastoretest.NewServer()
	defer srv.Close()

	res := runCli(t, "--server="+srv.URL, "--verbose", "buckets")
	require.Equal(t, 0, res.rc, res.stderr)
	require.Contains(t, res.stderr, "request")
	require.Contains(t, res.stderr, "component=rest")
}
