package store

import "github.com/jacentio/sammy/record"

// Config holds configuration for the Store.
type Config struct {
	// RecordTable is the name of the records table (hash key "pk", range key
	// "key_name"). Subdomain markers live here too.
	// Default: "sammy_records"
	RecordTable string

	// UniqueTable is the name of the unique ID table (hash key "pk", range
	// key "sk").
	// Default: "sammy_unique_ids"
	UniqueTable string

	// HomeDomain is the domain under which every subdomain is hosted.
	// Default: record.HomeDomain
	HomeDomain string

	// NumShards is the number of partitions each record kind is spread over.
	// A subdomain always lives in exactly one shard, so subdomain scans stay
	// single-partition; only prefix scans without a subdomain fan out.
	// Default: 1
	// Max: 256
	NumShards int

	// ConsistentReads requests strongly consistent reads for Get and scans.
	// When false, reads may not reflect the latest writes.
	ConsistentReads bool

	// PageSize limits the number of items evaluated per query page
	// (0 = DynamoDB's 1 MB default).
	PageSize int32
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		RecordTable: "sammy_records",
		UniqueTable: "sammy_unique_ids",
		HomeDomain:  record.HomeDomain,
		NumShards:   1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.RecordTable == "" {
		c.RecordTable = "sammy_records"
	}
	if c.UniqueTable == "" {
		c.UniqueTable = "sammy_unique_ids"
	}
	if c.HomeDomain == "" {
		c.HomeDomain = record.HomeDomain
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.PageSize < 0 {
		c.PageSize = 0
	}
}
