package rest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultNodeSelector(t *testing.T) {
	t.Run("consistency", func(t *testing.T) {
		first := DefaultNodeSelector("users/sergio", 10)
		for range 5 {
			require.Equal(t, first, DefaultNodeSelector("users/sergio", 10))
		}
	})

	t.Run("bounds", func(t *testing.T) {
		keys := []string{"", "users", "users/sergio", "long-bucket-name/with-a-long-key"}
		for _, key := range keys {
			for _, count := range []int{1, 2, 5, 10, 100} {
				result := DefaultNodeSelector(key, count)
				require.True(t, result >= 0 && result < count, "out of bounds: key=%s, nodeCount=%d, result=%d", key, count, result)
			}
		}
	})

	t.Run("distribution", func(t *testing.T) {
		nodeCount := 10
		distribution := make(map[int]int)
		for i := range 100 {
			distribution[DefaultNodeSelector(fmt.Sprintf("bucket/key-%d", i), nodeCount)]++
		}

		require.True(t, len(distribution) >= 5, "poor distribution: only %d nodes used out of %d", len(distribution), nodeCount)
		for node, count := range distribution {
			require.True(t, count <= 30, "unbalanced distribution: node %d has %d%% of keys", node, count)
		}
	})

	t.Run("no nodes", func(t *testing.T) {
		require.Equal(t, 0, DefaultNodeSelector("key", 0))
	})
}

func TestRoutingKey(t *testing.T) {
	require.Equal(t, "users", routingKey("users", ""))
	require.Equal(t, "users/sergio", routingKey("users", "sergio"))
}

func BenchmarkDefaultNodeSelector(b *testing.B) {
	for b.Loop() {
		DefaultNodeSelector("benchmark-bucket/benchmark-key", 10)
	}
}
