package terrastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContexts_ImmutableAfterExecute(t *testing.T) {
	conn := &stubConnection{}
	client := newStubClient(t, conn)
	ctx := context.Background()

	key := client.Bucket("users").Key("sergio")
	cond := key.Conditionally("field:name=Sergio")
	update := key.Update().Function(Merge).Param("name", "Sergio")

	before, err := cond.Build()
	require.NoError(t, err)
	updateBefore, err := update.Build()
	require.NoError(t, err)

	require.NoError(t, cond.Put(ctx, user{Name: "Sergio"}))
	require.NoError(t, update.Execute(ctx, nil))

	// Derive new operations from the executed ones
	_ = cond.key.Conditionally("field:name=Other")
	_ = update.Param("name", "Other").Function(Replace)

	after, err := cond.Build()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	updateAfter, err := update.Build()
	require.NoError(t, err)
	assert.Equal(t, updateBefore.Parameters(), updateAfter.Parameters())
	assert.Equal(t, updateBefore.Function(), updateAfter.Function())

	calls := conn.recorded()
	assert.Equal(t, before, calls[0])
	assert.Equal(t, map[string]any{"name": "Sergio"}, calls[1].(UpdateContext).Parameters())
}

func TestConditionalContext_EmbedsKey(t *testing.T) {
	c := ConditionalContext{KeyContext: KeyContext{bucket: "b", key: "k"}, predicate: "p:q"}
	assert.Equal(t, "b", c.Bucket())
	assert.Equal(t, "k", c.Key())
	assert.Equal(t, "p:q", c.Predicate())
}

func TestUpdateContext_NilParameters(t *testing.T) {
	var c UpdateContext
	assert.NotNil(t, c.Parameters())
	assert.Empty(t, c.Parameters())
}
