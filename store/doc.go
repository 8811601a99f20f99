// Package store provides a DynamoDB data access layer for records
// partitioned by subdomain.
//
// Every record belongs to exactly one subdomain (the repository holding it)
// and carries exactly one record ID (its identity of origin). The storage
// key is
//
//	<subdomain>:<record-id>
//
// so the subdomain is a mandatory key prefix, and a subdomain's records are
// read with a key range scan rather than a filter on the redundant
// subdomain attribute. A record whose subdomain matches the origin domain of
// its record ID is an original; any other record is a clone:
//
//	foo:foo.k2onepiece.appspot.com/person.234   original
//	bar:foo.k2onepiece.appspot.com/person.234   clone in bar
//
// # Record Types
//
// Record types embed [Base] and implement [Record]:
//
//	type Record interface {
//	    Kind() string
//	    Meta() *Base
//	}
//
// Records with required fields implement [Validator]; records with
// auto-updated timestamps implement [Toucher].
//
// # Creating and Committing
//
// The Create methods of [Records] only build in-memory records. Writing is a
// separate step: [Store.Put] (last writer wins), [Store.PutNew] (fails with
// [ErrAlreadyExists] if the key is taken) or [Store.Commit] (one
// transaction).
//
//	people := store.RecordsOf[model.Person](s)
//	p, err := people.CreateOriginal(ctx, "foo", model.Person{FirstName: "Ann"})
//	...
//	err = s.Put(ctx, p)
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1).
// Increase NumShards to spread each kind over more partitions:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
//
// # Consistency
//
// The store keeps no in-process state and takes no locks. Unique IDs come
// from an atomic counter. Scans and Gets are eventually consistent unless
// Config.ConsistentReads is set; consumers must tolerate stale reads.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrInvalidClone] - clone requested for a record original to the subdomain
//   - [ErrStorageUnavailable] - the backing store failed (see [StorageError])
//   - [ErrInvalidRequest] - the backing store rejected the request as invalid
//   - [ErrInvalidSubdomain] - empty subdomain or one containing ":"
//   - [ErrKeyMismatch] - subdomain field disagrees with the key prefix
//   - [ErrAlreadyExists] - PutNew on a taken key
//   - [ErrIDCollision] - the unique ID counter handed out a used ID
//
// Context cancellation is returned as the context's error, never as
// ErrStorageUnavailable. Malformed record IDs fail with record.ErrMalformedRecordID. A missing
// record is not an error: Get reports it with found == false.
package store
