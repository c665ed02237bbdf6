package terrastore

import "context"

// Getter is implemented by operations that read a single value.
type Getter interface {
	Get(ctx context.Context, out any) error
}

var (
	_ Getter = KeyOperation{}
	_ Getter = ConditionalOperation{}
)

// GetAs reads a single value and decodes it as T.
func GetAs[T any](ctx context.Context, op Getter) (T, error) {
	var v T
	if err := op.Get(ctx, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// KeyOperation addresses a single key within a bucket.
type KeyOperation struct {
	client *Client
	bucket string
	key    string
}

// Build validates the operation and returns its context.
func (k KeyOperation) Build() (KeyContext, error) {
	if err := validateName("bucket", k.bucket); err != nil {
		return KeyContext{}, err
	}
	if err := validateName("key", k.key); err != nil {
		return KeyContext{}, err
	}
	return KeyContext{bucket: k.bucket, key: k.key}, nil
}

// Put stores value under the key, replacing any existing value.
func (k KeyOperation) Put(ctx context.Context, value any) error {
	c, err := k.Build()
	if err != nil {
		return err
	}
	return k.client.exec(opPut, c.bucket, c.key, func() error {
		doc, err := encodeValue(k.client.codec, value)
		if err != nil {
			return err
		}
		return k.client.conn.PutValue(ctx, c, doc)
	})
}

// Get reads the value stored under the key into out.
// A missing key fails with a *RequestError with status 404.
func (k KeyOperation) Get(ctx context.Context, out any) error {
	c, err := k.Build()
	if err != nil {
		return err
	}
	return k.client.exec(opGet, c.bucket, c.key, func() error {
		doc, err := k.client.conn.GetValue(ctx, c)
		if err != nil {
			return err
		}
		return decodeValue(k.client.codec, doc, out)
	})
}

// Remove deletes the key and its value.
func (k KeyOperation) Remove(ctx context.Context) error {
	c, err := k.Build()
	if err != nil {
		return err
	}
	return k.client.exec(opRemove, c.bucket, c.key, func() error {
		return k.client.conn.RemoveValue(ctx, c)
	})
}

// Conditionally gates reads and writes of the key with a server-evaluated predicate,
// written as type:expression.
func (k KeyOperation) Conditionally(predicate string) ConditionalOperation {
	return ConditionalOperation{key: k, predicate: predicate}
}

// Update sets up an atomic server-side update of the key's value.
func (k KeyOperation) Update() UpdateOperation {
	return UpdateOperation{key: k, function: Replace}
}

// ConditionalOperation is a key operation guarded by a predicate.
//
// The three failure outcomes are distinguishable:
//   - condition not satisfied: *RequestError with status 409, see IsConditionNotSatisfied
//   - key not found: *RequestError with status 404, see IsNotFound
//   - no server outcome: *TransportError, see IsTransport
type ConditionalOperation struct {
	key       KeyOperation
	predicate string
}

// Build validates the operation and returns its context.
func (o ConditionalOperation) Build() (ConditionalContext, error) {
	kc, err := o.key.Build()
	if err != nil {
		return ConditionalContext{}, err
	}
	if err := validatePredicate(o.predicate); err != nil {
		return ConditionalContext{}, err
	}
	return ConditionalContext{KeyContext: kc, predicate: o.predicate}, nil
}

// Put stores value if the key is absent or its current value satisfies the predicate.
func (o ConditionalOperation) Put(ctx context.Context, value any) error {
	c, err := o.Build()
	if err != nil {
		return err
	}
	client := o.key.client
	return client.exec(opPut, c.bucket, c.key, func() error {
		doc, err := encodeValue(client.codec, value)
		if err != nil {
			return err
		}
		return client.conn.PutValueIf(ctx, c, doc)
	})
}

// Get reads the value into out if it satisfies the predicate.
func (o ConditionalOperation) Get(ctx context.Context, out any) error {
	c, err := o.Build()
	if err != nil {
		return err
	}
	client := o.key.client
	return client.exec(opGet, c.bucket, c.key, func() error {
		doc, err := client.conn.GetValueIf(ctx, c)
		if err != nil {
			return err
		}
		return decodeValue(client.codec, doc, out)
	})
}
