package store

import (
	"strings"
	"time"
)

// Record is implemented by every storable record type. Record types embed
// Base and name their kind:
//
//	type Person struct {
//	    store.Base
//	    FirstName string `dynamodbav:"first_name,omitempty"`
//	}
//
//	func (Person) Kind() string { return "Person" }
type Record interface {
	// Kind returns the record type name (e.g., "Person"). Its lowercase form
	// is the type tag of newly minted record IDs.
	Kind() string

	// Meta returns the embedded Base.
	Meta() *Base
}

// RecordPtr constrains a type parameter to a pointer to a Record struct.
type RecordPtr[T any] interface {
	*T
	Record
}

// Validator is implemented by records with required fields.
// Validate is called before every write.
type Validator interface {
	Validate() error
}

// Toucher is implemented by records with auto-updated timestamps.
// Touch is called with the write time before every write.
type Toucher interface {
	Touch(now time.Time)
}

// Base holds the fields shared by all records.
type Base struct {
	// KeyName is the storage key, subdomain + ":" + record ID.
	KeyName string `dynamodbav:"key_name"`

	// Subdomain duplicates the key prefix so it can be indexed.
	Subdomain string `dynamodbav:"subdomain"`

	// CreatedAt is the RFC 3339 time of the first write.
	CreatedAt string `dynamodbav:"created_at,omitempty"`

	// UpdatedAt is the RFC 3339 time of the latest write.
	UpdatedAt string `dynamodbav:"updated_at,omitempty"`

	// TTL is the Unix time after which the record reads as absent (0 = never).
	TTL int64 `dynamodbav:"ttl,omitempty"`
}

// Meta returns b. Embedding Base gives a record type its Meta method.
func (b *Base) Meta() *Base { return b }

// RecordID returns the record ID part of the storage key.
func (b *Base) RecordID() string {
	_, id, _ := strings.Cut(b.KeyName, ":")
	return id
}
