package terrastore

import (
	"context"
	"time"
)

// Query is implemented by ValuesOperation, RangeOperation and PredicateOperation.
type Query interface {
	// Entries executes the query and returns the raw results in order.
	Entries(ctx context.Context) ([]Entry, error)

	codec() Codec
}

var (
	_ Query = ValuesOperation{}
	_ Query = RangeOperation{}
	_ Query = PredicateOperation{}
)

// Collect executes the query and decodes every value as T.
// No match is an empty Values, never an error.
func Collect[T any](ctx context.Context, q Query) (*Values[T], error) {
	entries, err := q.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return decodeValues[T](q.codec(), entries)
}

// ValuesOperation returns all values of a bucket.
type ValuesOperation struct {
	client *Client
	bucket string
	limit  int
}

// Limit bounds the number of values returned; zero means no limit.
func (o ValuesOperation) Limit(n int) ValuesOperation {
	o.limit = n
	return o
}

// Build validates the operation and returns its context.
func (o ValuesOperation) Build() (ValuesContext, error) {
	if err := validateName("bucket", o.bucket); err != nil {
		return ValuesContext{}, err
	}
	if err := validateLimit(o.limit); err != nil {
		return ValuesContext{}, err
	}
	return ValuesContext{bucket: o.bucket, limit: o.limit}, nil
}

func (o ValuesOperation) Entries(ctx context.Context) ([]Entry, error) {
	c, err := o.Build()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = o.client.exec(opQuery, c.bucket, "", func() error {
		var err error
		entries, err = o.client.conn.GetAllValues(ctx, c)
		return err
	})
	return entries, err
}

func (o ValuesOperation) codec() Codec { return o.client.codec }

// RangeOperation scans a bucket's keys between two inclusive bounds, in comparator order.
type RangeOperation struct {
	client     *Client
	bucket     string
	startKey   string
	endKey     string
	comparator string
	predicate  string
	limit      int
	timeToLive time.Duration
}

// From sets the first key of the range.
func (o RangeOperation) From(key string) RangeOperation {
	o.startKey = key
	return o
}

// To sets the last key of the range; without it the scan runs to the last key.
func (o RangeOperation) To(key string) RangeOperation {
	o.endKey = key
	return o
}

// Comparator names the server-side comparator ordering the keys.
func (o RangeOperation) Comparator(name string) RangeOperation {
	o.comparator = name
	return o
}

// Limit bounds the number of values returned; zero means no limit.
func (o RangeOperation) Limit(n int) RangeOperation {
	o.limit = n
	return o
}

// TimeToLive lets the server answer from range results at most this old.
func (o RangeOperation) TimeToLive(d time.Duration) RangeOperation {
	o.timeToLive = d
	return o
}

// Conditionally keeps only the values satisfying predicate.
func (o RangeOperation) Conditionally(predicate string) RangeOperation {
	o.predicate = predicate
	return o
}

// Build validates the operation and returns its context.
func (o RangeOperation) Build() (RangeContext, error) {
	if err := validateName("bucket", o.bucket); err != nil {
		return RangeContext{}, err
	}
	if err := validateName("range start key", o.startKey); err != nil {
		return RangeContext{}, err
	}
	if err := validateLimit(o.limit); err != nil {
		return RangeContext{}, err
	}
	if o.timeToLive < 0 {
		return RangeContext{}, configError("time to live", "must not be negative, got %s", o.timeToLive)
	}
	if o.predicate != "" {
		if err := validatePredicate(o.predicate); err != nil {
			return RangeContext{}, err
		}
	}
	return RangeContext{
		bucket:     o.bucket,
		startKey:   o.startKey,
		endKey:     o.endKey,
		comparator: o.comparator,
		predicate:  o.predicate,
		limit:      o.limit,
		timeToLive: o.timeToLive,
	}, nil
}

func (o RangeOperation) Entries(ctx context.Context) ([]Entry, error) {
	c, err := o.Build()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = o.client.exec(opQuery, c.bucket, "", func() error {
		var err error
		entries, err = o.client.conn.QueryByRange(ctx, c)
		return err
	})
	return entries, err
}

func (o RangeOperation) codec() Codec { return o.client.codec }

// PredicateOperation returns the values of a bucket satisfying a predicate.
type PredicateOperation struct {
	client    *Client
	bucket    string
	predicate string
}

// Build validates the operation and returns its context.
func (o PredicateOperation) Build() (PredicateContext, error) {
	if err := validateName("bucket", o.bucket); err != nil {
		return PredicateContext{}, err
	}
	if err := validatePredicate(o.predicate); err != nil {
		return PredicateContext{}, err
	}
	return PredicateContext{bucket: o.bucket, predicate: o.predicate}, nil
}

func (o PredicateOperation) Entries(ctx context.Context) ([]Entry, error) {
	c, err := o.Build()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = o.client.exec(opQuery, c.bucket, "", func() error {
		var err error
		entries, err = o.client.conn.QueryByPredicate(ctx, c)
		return err
	})
	return entries, err
}

func (o PredicateOperation) codec() Codec { return o.client.codec }
