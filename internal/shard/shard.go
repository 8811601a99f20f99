// Package shard provides partition key generation for the records table.
package shard

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// PartitionKey computes the partition key holding kind's records for one
// subdomain. Every key of a subdomain hashes to the same shard, so a
// subdomain-scoped range scan touches a single partition.
// With numShards=1, all records of a kind go to shard "00".
func PartitionKey(kind, subdomain string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", kind)
	}
	h := fnv.New32a()
	h.Write([]byte(subdomain))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", kind, shard)
}

// PartitionKeys returns every partition key of kind, in shard order.
func PartitionKeys(kind string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s#%02x", kind, i)
	}
	return keys
}

// KindOf returns the kind encoded in a partition key.
func KindOf(partitionKey string) (string, bool) {
	i := strings.LastIndexByte(partitionKey, '#')
	if i <= 0 {
		return "", false
	}
	return partitionKey[:i], true
}
