package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jacentio/sammy/store"
)

// settings captures the registrar's environment configuration.
type settings struct {
	Store    store.Config
	RedisURL string
	LogLevel string
}

// fromEnv builds settings from SAMMY_* environment variables so main stays lean.
// Unset variables keep store.DefaultConfig values.
func fromEnv() (settings, error) {
	s := settings{
		Store:    store.DefaultConfig(),
		RedisURL: os.Getenv("SAMMY_REDIS_URL"),
		LogLevel: os.Getenv("SAMMY_LOG_LEVEL"),
	}
	if v := os.Getenv("SAMMY_RECORD_TABLE"); v != "" {
		s.Store.RecordTable = v
	}
	if v := os.Getenv("SAMMY_UNIQUE_TABLE"); v != "" {
		s.Store.UniqueTable = v
	}
	if v := os.Getenv("SAMMY_HOME_DOMAIN"); v != "" {
		s.Store.HomeDomain = v
	}
	if v := os.Getenv("SAMMY_NUM_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings{}, fmt.Errorf("SAMMY_NUM_SHARDS: %w", err)
		}
		s.Store.NumShards = n
	}
	s.Store.ConsistentReads = os.Getenv("SAMMY_CONSISTENT_READS") == "true"
	return s, nil
}
