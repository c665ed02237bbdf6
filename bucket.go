package terrastore

import "context"

// BucketOperation scopes operations to one bucket.
type BucketOperation struct {
	client *Client
	bucket string
}

// Name returns the bucket name.
func (b BucketOperation) Name() string {
	return b.bucket
}

// Key sets up operations on a single key of the bucket.
func (b BucketOperation) Key(key string) KeyOperation {
	return KeyOperation{client: b.client, bucket: b.bucket, key: key}
}

// Values sets up a query returning all values of the bucket.
func (b BucketOperation) Values() ValuesOperation {
	return ValuesOperation{client: b.client, bucket: b.bucket}
}

// Range sets up an ordered scan over the bucket's keys.
func (b BucketOperation) Range() RangeOperation {
	return RangeOperation{client: b.client, bucket: b.bucket}
}

// Predicate sets up a query returning the values that satisfy predicate.
func (b BucketOperation) Predicate(predicate string) PredicateOperation {
	return PredicateOperation{client: b.client, bucket: b.bucket, predicate: predicate}
}

// Backup sets up an export or import of the bucket through a server-side file.
func (b BucketOperation) Backup(file string) BackupOperation {
	return BackupOperation{client: b.client, bucket: b.bucket, file: file}
}

// Clear removes the bucket and all its values.
func (b BucketOperation) Clear(ctx context.Context) error {
	if err := validateName("bucket", b.bucket); err != nil {
		return err
	}
	return b.client.exec(opRemove, b.bucket, "", func() error {
		return b.client.conn.ClearBucket(ctx, b.bucket)
	})
}

// BucketsOperation operates on the collection of buckets.
type BucketsOperation struct {
	client *Client
}

// List returns the names of all buckets.
func (b BucketsOperation) List(ctx context.Context) ([]string, error) {
	var names []string
	err := b.client.exec(opAdmin, "", "", func() error {
		var err error
		names, err = b.client.conn.GetBuckets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
