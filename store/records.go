package store

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/sammy/internal/shard"
)

// Records provides typed access to the records of one kind.
// Callers never build storage keys; Records composes them from a subdomain
// and a record ID.
type Records[T any, P RecordPtr[T]] struct {
	s    *Store
	kind string
}

// RecordsOf returns the typed record handle for T:
//
//	people := store.RecordsOf[model.Person](s)
func RecordsOf[T any, P RecordPtr[T]](s *Store) *Records[T, P] {
	return &Records[T, P]{s: s, kind: P(new(T)).Kind()}
}

// Kind returns the record kind handled by r.
func (r *Records[T, P]) Kind() string { return r.kind }

// Get returns the record stored under recordID in subdomain. A missing or
// expired record is reported as found == false with a nil error.
func (r *Records[T, P]) Get(ctx context.Context, subdomain, recordID string) (rec P, found bool, err error) {
	if err := validateSubdomain(subdomain); err != nil {
		return nil, false, err
	}
	out, err := r.s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.s.config.RecordTable),
		Key:            r.s.recordKey(r.kind, subdomain, Key(subdomain, recordID)),
		ConsistentRead: aws.Bool(r.s.config.ConsistentReads),
	})
	if err != nil {
		return nil, false, storageErr("get", err)
	}
	if out.Item == nil || IsExpired(out.Item, r.s.now()) {
		return nil, false, nil
	}
	rec, err = decode[T, P](out.Item)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// CreateOriginal returns a new, uncommitted original record in subdomain
// with a freshly minted record ID of the form
// "<subdomain>.<home-domain>/<kind>.<unique-id>".
func (r *Records[T, P]) CreateOriginal(ctx context.Context, subdomain string, fields T) (P, error) {
	if err := validateSubdomain(subdomain); err != nil {
		return nil, err
	}
	uid, err := r.s.CreateID(ctx)
	if err != nil {
		return nil, err
	}
	return r.build(subdomain, r.s.ns.NewID(subdomain, r.kind, uid), fields), nil
}

// CreateClone returns a new, uncommitted clone of a record that originated
// in another subdomain. It returns ErrInvalidClone if recordID is original to
// subdomain.
func (r *Records[T, P]) CreateClone(subdomain, recordID string, fields T) (P, error) {
	if err := validateSubdomain(subdomain); err != nil {
		return nil, err
	}
	clone, err := r.s.ns.IsClone(subdomain, recordID)
	if err != nil {
		return nil, err
	}
	if !clone {
		return nil, fmt.Errorf("%w: %q in %q", ErrInvalidClone, recordID, subdomain)
	}
	return r.build(subdomain, recordID, fields), nil
}

// CreateOriginalWithRecordID returns an uncommitted record under an
// arbitrary record ID. Nothing is checked: committing it with Put silently
// overwrites whatever is stored under the same key. It exists for
// administrative imports into a home repository.
func (r *Records[T, P]) CreateOriginalWithRecordID(subdomain, recordID string, fields T) (P, error) {
	if err := validateSubdomain(subdomain); err != nil {
		return nil, err
	}
	r.s.logger.Info("creating record with explicit record id",
		"kind", r.kind,
		"subdomain", subdomain,
		"recordID", recordID,
	)
	return r.build(subdomain, recordID, fields), nil
}

func (r *Records[T, P]) build(subdomain, recordID string, fields T) P {
	rec := P(&fields)
	meta := rec.Meta()
	meta.KeyName = Key(subdomain, recordID)
	meta.Subdomain = subdomain
	return rec
}

// AllInSubdomain iterates over every unexpired record in subdomain in key
// order. The sequence is lazy and paginated; each range over it issues a
// fresh query. Reads are eventually consistent unless
// Config.ConsistentReads is set.
func (r *Records[T, P]) AllInSubdomain(ctx context.Context, subdomain string) iter.Seq2[P, error] {
	if err := validateSubdomain(subdomain); err != nil {
		return errSeq[P](err)
	}
	return r.FilterByPrefix(ctx, subdomain+":")
}

// FilterByPrefix iterates over every unexpired record whose storage key
// starts with prefix, in key order. A prefix containing ":" names its
// subdomain and scans one partition lazily. A shorter prefix queries every
// shard concurrently and buffers the merged result.
func (r *Records[T, P]) FilterByPrefix(ctx context.Context, prefix string) iter.Seq2[P, error] {
	if sub, _, ok := strings.Cut(prefix, ":"); ok {
		return r.scan(ctx, r.s.partitionKey(r.kind, sub), prefix)
	}
	return r.scanShards(ctx, prefix)
}

// scan lazily pages through one partition.
func (r *Records[T, P]) scan(ctx context.Context, pk, prefix string) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		paginator := dynamodb.NewQueryPaginator(r.s.client, r.s.rangeQuery(pk, prefix))
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(nil, storageErr("query", err))
				return
			}
			for _, raw := range page.Items {
				if !yield(decode[T, P](raw)) {
					return
				}
			}
		}
	}
}

// scanShards queries every shard of the kind and merges the results by key.
func (r *Records[T, P]) scanShards(ctx context.Context, prefix string) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		pks := shard.PartitionKeys(r.kind, r.s.config.NumShards)
		pages := make([][]map[string]types.AttributeValue, len(pks))

		g, gctx := errgroup.WithContext(ctx)
		for i, pk := range pks {
			g.Go(func() error {
				paginator := dynamodb.NewQueryPaginator(r.s.client, r.s.rangeQuery(pk, prefix))
				for paginator.HasMorePages() {
					page, err := paginator.NextPage(gctx)
					if err != nil {
						return fmt.Errorf("shard %s: %w", pk, err)
					}
					pages[i] = append(pages[i], page.Items...)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			yield(nil, storageErr("query", err))
			return
		}

		merged := slices.Concat(pages...)
		slices.SortStableFunc(merged, func(a, b map[string]types.AttributeValue) int {
			return strings.Compare(keyOf(a), keyOf(b))
		})
		for _, raw := range merged {
			if !yield(decode[T, P](raw)) {
				return
			}
		}
	}
}

// decode unmarshals a raw item and checks its key invariant.
func decode[T any, P RecordPtr[T]](raw map[string]types.AttributeValue) (P, error) {
	rec := P(new(T))
	if err := attributevalue.UnmarshalMap(raw, rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", rec.Kind(), err)
	}
	if err := checkKey(rec.Meta()); err != nil {
		return nil, err
	}
	return rec, nil
}

func errSeq[P any](err error) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		var zero P
		yield(zero, err)
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[P any](seq iter.Seq2[P, error]) ([]P, error) {
	var out []P
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
