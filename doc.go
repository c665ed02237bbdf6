// Package terrastore is a client for Terrastore, a distributed document store.
//
// Values live in buckets, addressed by key. A client only needs the address of one server:
// the server routes each request to the node holding the data.
//
// # Usage
//
// Operations are built by chaining immutable values, then executed with a context:
//
//	client, err := rest.NewClient("http://localhost:8080", rest.Config{}, terrastore.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	users := client.Bucket("users")
//	err = users.Key("sergio").Put(ctx, User{Name: "Sergio"})
//
//	user, err := terrastore.GetAs[User](ctx, users.Key("sergio"))
//
//	found, err := terrastore.Collect[User](ctx, users.Range().From("a").To("m").Limit(10))
//	for key, user := range found.All() {
//	    ...
//	}
//
// Every builder is a value: setters return a modified copy and the executing method builds a
// frozen context (Build) before the single call to the Connection. A builder can be reused and
// shared freely.
//
// # Errors
//
// Operations fail with one of three error types:
//
//   - *ConfigError: invalid input, detected before anything is sent
//   - *RequestError: the server answered with a failure status; Status and Body are set
//   - *TransportError: no server outcome (network, serialization, open circuit breaker)
//
// IsNotFound (404), IsConditionNotSatisfied (409) and IsTimeout (408) classify request
// failures. Nothing is retried; Retryable tells which failures are worth retrying.
//
// # Connections
//
// The Connection interface is the only seam between operations and the network. The rest
// package implements it over the Terrastore HTTP API; tests can supply their own.
package terrastore
