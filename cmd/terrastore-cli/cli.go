package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pior/terrastore"
	"github.com/pior/terrastore/rest"
	"github.com/rs/zerolog"
)

// Config contains the configuration of the command-line tool.
type Config struct {
	Name        string
	Description string
	// Exit is called by kong after printing help or a usage error.
	Exit   func(int)
	Stdout io.Writer
	Stderr io.Writer
}

// NewConfig returns a Config writing to the process's standard streams.
func NewConfig() *Config {
	return &Config{
		Name:        "terrastore-cli",
		Description: "Command-line client for a Terrastore cluster.",
		Exit:        os.Exit,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

type cmdBuckets struct{}

type cmdClear struct {
	Bucket string `arg:"" help:"Bucket to remove."`
}

type cmdStats struct{}

type cmdGet struct {
	Bucket    string `arg:""`
	Key       string `arg:""`
	Predicate string `short:"p" help:"Only return the value if it satisfies this predicate (type:expression)."`
}

type cmdPut struct {
	Bucket    string `arg:""`
	Key       string `arg:""`
	Value     string `arg:"" help:"JSON document to store."`
	Predicate string `short:"p" help:"Only replace an existing value satisfying this predicate (type:expression)."`
}

type cmdRemove struct {
	Bucket string `arg:""`
	Key    string `arg:""`
}

type cmdValues struct {
	Bucket string `arg:""`
	Limit  int    `short:"l" help:"Maximum number of values, 0 for all."`
}

type cmdRange struct {
	Bucket     string        `arg:""`
	From       string        `required:"" help:"First key of the range."`
	To         string        `help:"Last key of the range; empty runs to the last key."`
	Comparator string        `short:"c" help:"Key comparator, for example lexical-asc."`
	Limit      int           `short:"l" help:"Maximum number of values, 0 for all."`
	Predicate  string        `short:"p" help:"Only return values satisfying this predicate."`
	TimeToLive time.Duration `name:"ttl" help:"How stale the results may be."`
}

type cmdQuery struct {
	Bucket    string `arg:""`
	Predicate string `arg:"" help:"Predicate values must satisfy (type:expression)."`
}

type cmdUpdate struct {
	Bucket   string            `arg:""`
	Key      string            `arg:""`
	Function string            `short:"f" default:"replace" help:"Server-side update function."`
	Param    map[string]string `short:"P" help:"Function parameter as name=value; repeatable."`
	Timeout  time.Duration     `short:"t" help:"Abort the update if the function runs longer."`
}

type cmdBackup struct {
	Bucket string `arg:""`
	File   string `arg:"" help:"Backup file on the server."`
	Secret string `default:"SECRET-KEY" help:"Secret key authorizing backups."`
}

type cmdNodes struct{}

type cliArgs struct {
	Server         string        `short:"s" default:"localhost:8080" env:"TERRASTORE_SERVER" help:"Address of a Terrastore server."`
	Peer           []string      `help:"Address of another node of the cluster; repeatable."`
	RequestTimeout time.Duration `default:"10s" help:"Timeout of each request."`
	Verbose        bool          `short:"v" help:"Log every request to stderr."`

	Buckets cmdBuckets `cmd:"" help:"List bucket names."`
	Clear   cmdClear   `cmd:"" help:"Remove a bucket and all its values."`
	Stats   cmdStats   `cmd:"" help:"Show the cluster membership."`
	Get     cmdGet     `cmd:"" help:"Print the value of a key."`
	Put     cmdPut     `cmd:"" help:"Store a value under a key."`
	Remove  cmdRemove  `cmd:"" help:"Remove a key."`
	Values  cmdValues  `cmd:"" help:"Print all values of a bucket."`
	Range   cmdRange   `cmd:"" help:"Print the values of a key range."`
	Query   cmdQuery   `cmd:"" help:"Print the values satisfying a predicate."`
	Update  cmdUpdate  `cmd:"" help:"Atomically update a value with a server-side function."`
	Export  cmdBackup  `cmd:"" help:"Export a bucket to a backup file."`
	Import  cmdBackup  `cmd:"" help:"Import a backup file into a bucket."`
	Nodes   cmdNodes   `cmd:"" help:"Show the nodes of the connection."`
}

// Cli parses args and executes the subcommand. It returns the process exit code:
// 0 on success, 1 when the operation failed and 2 on usage errors.
func Cli(args []string, config *Config) int {
	var cli cliArgs

	parser, err := kong.New(&cli,
		kong.Name(config.Name),
		kong.Description(config.Description),
		kong.Exit(config.Exit),
		kong.Writers(config.Stdout, config.Stderr),
	)
	if err != nil {
		fmt.Fprintln(config.Stderr, err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(config.Stderr, "%s: error: %v\n", config.Name, err)
		return 2
	}

	logger := zerolog.Nop()
	if cli.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: config.Stderr, NoColor: true}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	conn, err := rest.NewConnection(cli.Server, rest.Config{
		Timeout: cli.RequestTimeout,
		Peers:   cli.Peer,
		Logger:  &logger,
	})
	if err != nil {
		fmt.Fprintf(config.Stderr, "%s: error: %v\n", config.Name, err)
		return 2
	}
	client, err := terrastore.NewClient(cli.Server, func(string) (terrastore.Connection, error) { return conn, nil }, terrastore.Config{Logger: &logger})
	if err != nil {
		conn.Close()
		fmt.Fprintf(config.Stderr, "%s: error: %v\n", config.Name, err)
		return 2
	}
	defer client.Close()

	r := &runner{client: client, conn: conn, out: config.Stdout}
	if err := r.run(context.Background(), kctx.Command(), &cli); err != nil {
		fmt.Fprintf(config.Stderr, "%s: %s\n", config.Name, describe(err))
		if terrastore.IsConfig(err) {
			return 2
		}
		return 1
	}
	return 0
}

type runner struct {
	client *terrastore.Client
	conn   *rest.Connection
	out    io.Writer
}

func (r *runner) run(ctx context.Context, command string, cli *cliArgs) error {
	name, _, _ := strings.Cut(command, " ")

	switch name {
	case "buckets":
		names, err := r.client.Buckets().List(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(r.out, n)
		}
		return nil

	case "clear":
		return r.client.Bucket(cli.Clear.Bucket).Clear(ctx)

	case "stats":
		stats, err := r.client.ClusterStats(ctx)
		if err != nil {
			return err
		}
		for _, c := range stats.Clusters {
			fmt.Fprintf(r.out, "%s\t%s\n", c.Name, c.Status)
			for _, n := range c.Nodes {
				fmt.Fprintf(r.out, "  %s\t%s:%d\n", n.Name, n.Host, n.Port)
			}
		}
		return nil

	case "get":
		key := r.client.Bucket(cli.Get.Bucket).Key(cli.Get.Key)
		var getter terrastore.Getter = key
		if cli.Get.Predicate != "" {
			getter = key.Conditionally(cli.Get.Predicate)
		}
		doc, err := terrastore.GetAs[json.RawMessage](ctx, getter)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, string(doc))
		return nil

	case "put":
		if !json.Valid([]byte(cli.Put.Value)) {
			return &terrastore.ConfigError{Field: "value", Message: "not a JSON document"}
		}
		key := r.client.Bucket(cli.Put.Bucket).Key(cli.Put.Key)
		value := json.RawMessage(cli.Put.Value)
		if cli.Put.Predicate != "" {
			return key.Conditionally(cli.Put.Predicate).Put(ctx, value)
		}
		return key.Put(ctx, value)

	case "remove":
		return r.client.Bucket(cli.Remove.Bucket).Key(cli.Remove.Key).Remove(ctx)

	case "values":
		return r.print(ctx, r.client.Bucket(cli.Values.Bucket).Values().Limit(cli.Values.Limit))

	case "range":
		a := cli.Range
		op := r.client.Bucket(a.Bucket).Range().
			From(a.From).
			To(a.To).
			Comparator(a.Comparator).
			Limit(a.Limit).
			TimeToLive(a.TimeToLive)
		if a.Predicate != "" {
			op = op.Conditionally(a.Predicate)
		}
		return r.print(ctx, op)

	case "query":
		return r.print(ctx, r.client.Bucket(cli.Query.Bucket).Predicate(cli.Query.Predicate))

	case "update":
		a := cli.Update
		op := r.client.Bucket(a.Bucket).Key(a.Key).Update().
			Function(terrastore.UpdateFunction(a.Function)).
			Timeout(a.Timeout)
		for k, v := range a.Param {
			op = op.Param(k, v)
		}
		doc, err := terrastore.UpdateAs[json.RawMessage](ctx, op)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, string(doc))
		return nil

	case "export":
		return r.client.Bucket(cli.Export.Bucket).Backup(cli.Export.File).SecretKey(cli.Export.Secret).Export(ctx)

	case "import":
		return r.client.Bucket(cli.Import.Bucket).Backup(cli.Import.File).SecretKey(cli.Import.Secret).Import(ctx)

	case "nodes":
		for _, n := range r.conn.Stats() {
			fmt.Fprintf(r.out, "%s\tmax-in-flight=%d\tcircuit=%s\n", n.Addr, n.MaxInFlight, n.CircuitBreakerState)
		}
		return nil
	}

	return fmt.Errorf("unknown command %q", command)
}

func (r *runner) print(ctx context.Context, q terrastore.Query) error {
	values, err := terrastore.Collect[json.RawMessage](ctx, q)
	if err != nil {
		return err
	}
	for key, doc := range values.All() {
		fmt.Fprintf(r.out, "%s\t%s\n", key, doc)
	}
	return nil
}

func describe(err error) string {
	switch {
	case terrastore.IsNotFound(err):
		return "not found"
	case terrastore.IsConditionNotSatisfied(err):
		return "condition not satisfied"
	case terrastore.IsTimeout(err):
		return "update timed out"
	}

	var reqErr *terrastore.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return fmt.Sprintf("status %d: %s", reqErr.Status, reqErr.Message)
	}
	return err.Error()
}
