package rest

import "github.com/zeebo/xxh3"

// NodeSelector picks which node serves a request.
// It receives the request's routing key and the number of nodes, and returns an index in
// [0, nodeCount). Any node can serve any request; selection only spreads the load.
type NodeSelector func(routingKey string, nodeCount int) int

// DefaultNodeSelector hashes the routing key with xxh3 and maps it with Jump Hash,
// so requests for the same key keep going to the same node while the node list is stable.
func DefaultNodeSelector(routingKey string, nodeCount int) int {
	return jumpHash(xxh3.HashString(routingKey), nodeCount)
}

// jumpHash is Google's "Jump" consistent hash, https://arxiv.org/abs/1406.2294.
func jumpHash(key uint64, buckets int) int {
	if buckets <= 0 {
		return 0
	}

	var b, j int64 = -1, 0
	for j < int64(buckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return int(b)
}

// routingKey groups requests by bucket, and by key within a bucket.
func routingKey(bucket, key string) string {
	if key == "" {
		return bucket
	}
	return bucket + "/" + key
}
