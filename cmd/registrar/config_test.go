package main

import (
	"testing"

	"github.com/jacentio/sammy/store"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"SAMMY_RECORD_TABLE", "SAMMY_UNIQUE_TABLE", "SAMMY_HOME_DOMAIN",
		"SAMMY_NUM_SHARDS", "SAMMY_CONSISTENT_READS", "SAMMY_REDIS_URL",
	} {
		t.Setenv(k, "")
	}

	s, err := fromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if s.Store != store.DefaultConfig() {
		t.Errorf("expected default store config, got %+v", s.Store)
	}
	if s.RedisURL != "" {
		t.Errorf("expected no redis URL, got %q", s.RedisURL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SAMMY_RECORD_TABLE", "records")
	t.Setenv("SAMMY_UNIQUE_TABLE", "ids")
	t.Setenv("SAMMY_HOME_DOMAIN", "example.org")
	t.Setenv("SAMMY_NUM_SHARDS", "16")
	t.Setenv("SAMMY_CONSISTENT_READS", "true")
	t.Setenv("SAMMY_REDIS_URL", "redis://localhost:6379/0")

	s, err := fromEnv()
	if err != nil {
		t.Fatal(err)
	}
	expected := store.Config{
		RecordTable:     "records",
		UniqueTable:     "ids",
		HomeDomain:      "example.org",
		NumShards:       16,
		ConsistentReads: true,
	}
	if s.Store != expected {
		t.Errorf("expected %+v, got %+v", expected, s.Store)
	}
	if s.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis URL %q", s.RedisURL)
	}
}

func TestFromEnv_InvalidShards(t *testing.T) {
	t.Setenv("SAMMY_NUM_SHARDS", "many")
	if _, err := fromEnv(); err == nil {
		t.Error("expected error for non-numeric SAMMY_NUM_SHARDS")
	}
}
