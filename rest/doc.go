// Package rest implements terrastore.Connection over the Terrastore HTTP API.
//
// Each operation context maps to exactly one HTTP request:
//
//	PUT    /{bucket}/{key}[?predicate=]        put, conditional put
//	GET    /{bucket}/{key}[?predicate=]        get, conditional get
//	DELETE /{bucket}/{key}                     remove
//	GET    /{bucket}?limit=                    all values
//	GET    /{bucket}/range?startKey=&endKey=   range query
//	GET    /{bucket}/predicate?predicate=      predicate query
//	POST   /{bucket}/export?destination=       backup export
//	POST   /{bucket}/import?source=            backup import
//	POST   /{bucket}/{key}/update?function=    atomic update
//	DELETE /{bucket}                           clear bucket
//	GET    /                                   bucket names
//	GET    /_stats/cluster                     cluster stats
//
// Keys equal to a reserved segment (range, predicate, export, import) are shadowed by the
// bucket-level requests of the same path.
//
// A connection can spread requests over several nodes of the same cluster (Config.Peers).
// Each node bounds its in-flight requests and can be guarded by a circuit breaker:
//
//	client, err := rest.NewClient("localhost:8080", rest.Config{
//	    Peers:             []string{"localhost:8081"},
//	    NewCircuitBreaker: rest.NewCircuitBreakerConfig(3, time.Minute, 10*time.Second),
//	}, terrastore.Config{})
package rest
