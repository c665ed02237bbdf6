package terrastore

import "sync/atomic"

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
//
// For Prometheus integration, see the metrics package:
//   - Counters: Gets, Puts, Removes, Queries, Updates, Backups (operation label)
//   - Counter: GetHits (derive hit rate as GetHits/Gets)
//   - Counters: Errors, NotFound, ConditionFailures
type ClientStats struct {
	Gets              uint64 // Get and conditional get operations
	GetHits           uint64 // Gets that returned a value
	Puts              uint64 // Put and conditional put operations
	Removes           uint64 // Remove operations
	Queries           uint64 // Values, range and predicate queries
	Updates           uint64 // Atomic update operations
	Backups           uint64 // Export and import operations
	Errors            uint64 // Total errors across all operations
	NotFound          uint64 // Errors with status 404
	ConditionFailures uint64 // Errors with status 409
}

type opKind uint8

const (
	opGet opKind = iota
	opPut
	opRemove
	opQuery
	opUpdate
	opBackup
	opAdmin
)

var opNames = [...]string{
	opGet:    "get",
	opPut:    "put",
	opRemove: "remove",
	opQuery:  "query",
	opUpdate: "update",
	opBackup: "backup",
	opAdmin:  "admin",
}

func (k opKind) String() string {
	return opNames[k]
}

// clientStatsCollector provides internal methods for updating client stats.
type clientStatsCollector struct {
	stats ClientStats
}

func (c *clientStatsCollector) record(kind opKind, err error) {
	switch kind {
	case opGet:
		atomic.AddUint64(&c.stats.Gets, 1)
		if err == nil {
			atomic.AddUint64(&c.stats.GetHits, 1)
		}
	case opPut:
		atomic.AddUint64(&c.stats.Puts, 1)
	case opRemove:
		atomic.AddUint64(&c.stats.Removes, 1)
	case opQuery:
		atomic.AddUint64(&c.stats.Queries, 1)
	case opUpdate:
		atomic.AddUint64(&c.stats.Updates, 1)
	case opBackup:
		atomic.AddUint64(&c.stats.Backups, 1)
	}

	if err == nil {
		return
	}
	atomic.AddUint64(&c.stats.Errors, 1)
	switch StatusOf(err) {
	case StatusNotFound:
		atomic.AddUint64(&c.stats.NotFound, 1)
	case StatusConditionNotSatisfied:
		atomic.AddUint64(&c.stats.ConditionFailures, 1)
	}
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Gets:              atomic.LoadUint64(&c.stats.Gets),
		GetHits:           atomic.LoadUint64(&c.stats.GetHits),
		Puts:              atomic.LoadUint64(&c.stats.Puts),
		Removes:           atomic.LoadUint64(&c.stats.Removes),
		Queries:           atomic.LoadUint64(&c.stats.Queries),
		Updates:           atomic.LoadUint64(&c.stats.Updates),
		Backups:           atomic.LoadUint64(&c.stats.Backups),
		Errors:            atomic.LoadUint64(&c.stats.Errors),
		NotFound:          atomic.LoadUint64(&c.stats.NotFound),
		ConditionFailures: atomic.LoadUint64(&c.stats.ConditionFailures),
	}
}
