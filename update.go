package terrastore

import (
	"context"
	"maps"
	"time"
)

// UpdateFunction identifies a server-side function run atomically against a key's value.
type UpdateFunction string

// Update functions shipped with the server.
const (
	Replace UpdateFunction = "replace" // replace the value with the parameters
	Merge   UpdateFunction = "merge"   // merge the parameters into the value
	Counter UpdateFunction = "counter" // add the numeric parameters to the value's members
)

// UpdateOperation atomically updates the value of a key on the server.
//
// The server locks the record while the function runs. If it runs longer than the timeout,
// the update is aborted and Execute fails with a *RequestError with status 408: the update
// must be assumed not applied.
type UpdateOperation struct {
	key        KeyOperation
	function   UpdateFunction
	parameters map[string]any
	timeout    time.Duration
}

// Function selects the update function; the default is Replace.
func (u UpdateOperation) Function(fn UpdateFunction) UpdateOperation {
	u.function = fn
	return u
}

// Parameters sets the function parameters; the map is copied.
func (u UpdateOperation) Parameters(params map[string]any) UpdateOperation {
	u.parameters = maps.Clone(params)
	return u
}

// Param adds one function parameter.
func (u UpdateOperation) Param(name string, value any) UpdateOperation {
	params := make(map[string]any, len(u.parameters)+1)
	maps.Copy(params, u.parameters)
	params[name] = value
	u.parameters = params
	return u
}

// Timeout bounds how long the function may hold the record lock.
// Zero leaves the server default; it is sent with millisecond precision.
func (u UpdateOperation) Timeout(d time.Duration) UpdateOperation {
	u.timeout = d
	return u
}

// Build validates the operation and returns its context.
func (u UpdateOperation) Build() (UpdateContext, error) {
	kc, err := u.key.Build()
	if err != nil {
		return UpdateContext{}, err
	}
	if u.function == "" {
		return UpdateContext{}, configError("update function", "must not be empty")
	}
	if u.timeout < 0 {
		return UpdateContext{}, configError("timeout", "must not be negative, got %s", u.timeout)
	}

	params := maps.Clone(u.parameters)
	if params == nil {
		params = map[string]any{}
	}
	return UpdateContext{
		KeyContext: kc,
		function:   u.function,
		timeout:    u.timeout,
		parameters: params,
	}, nil
}

// Execute runs the update and decodes the updated value into out.
// A nil out discards the value.
func (u UpdateOperation) Execute(ctx context.Context, out any) error {
	c, err := u.Build()
	if err != nil {
		return err
	}
	client := u.key.client
	return client.exec(opUpdate, c.bucket, c.key, func() error {
		doc, err := client.conn.ExecuteUpdate(ctx, c)
		if err != nil {
			return err
		}
		return decodeValue(client.codec, doc, out)
	})
}

// UpdateAs runs the update and decodes the updated value as T.
func UpdateAs[T any](ctx context.Context, op UpdateOperation) (T, error) {
	var v T
	if err := op.Execute(ctx, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
