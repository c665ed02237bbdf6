package terrastore

import (
	"maps"
	"time"
)

// Operation contexts are the fully resolved description of one request.
// They are built once by an operation's Build step and never change afterwards:
// fields are unexported and maps are private copies.

// KeyContext addresses a single key within a bucket.
type KeyContext struct {
	bucket string
	key    string
}

func (c KeyContext) Bucket() string { return c.bucket }
func (c KeyContext) Key() string    { return c.key }

// ConditionalContext addresses a key and gates the operation with a predicate.
type ConditionalContext struct {
	KeyContext
	predicate string
}

func (c ConditionalContext) Predicate() string { return c.predicate }

// ValuesContext selects all values of a bucket, optionally bounded.
type ValuesContext struct {
	bucket string
	limit  int
}

func (c ValuesContext) Bucket() string { return c.bucket }

// Limit is the maximum number of values to return; zero means no limit.
func (c ValuesContext) Limit() int { return c.limit }

// RangeContext describes an ordered scan of a bucket's keys between two inclusive bounds.
type RangeContext struct {
	bucket     string
	startKey   string
	endKey     string
	comparator string
	predicate  string
	limit      int
	timeToLive time.Duration
}

func (c RangeContext) Bucket() string   { return c.bucket }
func (c RangeContext) StartKey() string { return c.startKey }

// EndKey is empty for a scan running to the last key.
func (c RangeContext) EndKey() string { return c.endKey }

// Comparator names the server-side key comparator; empty selects the server default.
func (c RangeContext) Comparator() string { return c.comparator }

// Predicate filters range results; empty means no filter.
func (c RangeContext) Predicate() string { return c.predicate }
func (c RangeContext) Limit() int        { return c.limit }

// TimeToLive is how stale the server may let range results be; zero lets the server decide.
func (c RangeContext) TimeToLive() time.Duration { return c.timeToLive }

// PredicateContext selects all values of a bucket satisfying a predicate.
type PredicateContext struct {
	bucket    string
	predicate string
}

func (c PredicateContext) Bucket() string    { return c.bucket }
func (c PredicateContext) Predicate() string { return c.predicate }

// BackupContext names the server-side file a bucket is exported to or imported from.
type BackupContext struct {
	bucket    string
	file      string
	secretKey string
}

func (c BackupContext) Bucket() string    { return c.bucket }
func (c BackupContext) File() string      { return c.file }
func (c BackupContext) SecretKey() string { return c.secretKey }

// UpdateContext describes an atomic server-side update of a key.
type UpdateContext struct {
	KeyContext
	function   UpdateFunction
	timeout    time.Duration
	parameters map[string]any
}

func (c UpdateContext) Function() UpdateFunction { return c.function }

// Timeout bounds how long the server may hold the record lock; zero applies the server default.
func (c UpdateContext) Timeout() time.Duration { return c.timeout }

// Parameters returns a copy of the update function parameters.
func (c UpdateContext) Parameters() map[string]any {
	if c.parameters == nil {
		return map[string]any{}
	}
	return maps.Clone(c.parameters)
}
