package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/sammy/internal/shard"
	"github.com/jacentio/sammy/record"
)

// maxTransactItems is DynamoDB's TransactWriteItems limit.
const maxTransactItems = 100

// API is the subset of the DynamoDB client used by the Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store provides subdomain-partitioned record storage on DynamoDB.
//
// Store holds no mutable state of its own and is safe for concurrent use.
// Every guarantee about concurrent writers comes from DynamoDB: ID
// allocation is an atomic counter increment, and Put is last-writer-wins.
type Store struct {
	client API
	config Config
	ns     record.Namespace
	ids    IDAllocator
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithAllocator replaces the default DynamoDB-backed ID allocator.
func WithAllocator(a IDAllocator) Option {
	return func(s *Store) { s.ids = a }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the time source used for timestamps and TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a new Store instance.
func New(client API, config Config, opts ...Option) *Store {
	config.validate()
	s := &Store{
		client: client,
		config: config,
		ns:     record.Namespace{HomeDomain: config.HomeDomain},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ids == nil {
		s.ids = NewDynamoAllocator(client, config.UniqueTable)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Config returns the validated configuration.
func (s *Store) Config() Config { return s.config }

// Namespace returns the record ID namespace of the store's home domain.
func (s *Store) Namespace() record.Namespace { return s.ns }

// CreateID returns an integer never returned before by the allocator's
// backing store. Backend failures are *StorageError; there is no fallback.
func (s *Store) CreateID(ctx context.Context) (int64, error) {
	start := time.Now()
	id, err := s.ids.Allocate(ctx)
	idAllocationDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		idAllocations.WithLabelValues("error").Inc()
		if errors.Is(err, ErrIDCollision) {
			s.logger.Error("unique id collision", "error", err)
			return 0, err
		}
		return 0, storageErr("allocate id", err)
	}
	idAllocations.WithLabelValues("ok").Inc()
	return id, nil
}

// Put writes rec, overwriting any record stored under the same key.
func (s *Store) Put(ctx context.Context, rec Record) error {
	return s.put(ctx, rec, false)
}

// PutNew writes rec only if no record is stored under its key, returning
// ErrAlreadyExists otherwise. Use it where two creators may race on a key.
func (s *Store) PutNew(ctx context.Context, rec Record) error {
	return s.put(ctx, rec, true)
}

func (s *Store) put(ctx context.Context, rec Record, ifAbsent bool) error {
	item, err := s.prepare(rec)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.RecordTable),
		Item:      item,
	}
	mode := "overwrite"
	if ifAbsent {
		input.ConditionExpression = aws.String("attribute_not_exists(key_name)")
		mode = "new"
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.Meta().KeyName)
		}
		return storageErr("put", err)
	}
	recordsWritten.WithLabelValues(rec.Kind(), mode).Inc()
	return nil
}

// Commit writes all recs in a single transaction: either every record is
// written or none is. Each write overwrites any existing record.
func (s *Store) Commit(ctx context.Context, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	if len(recs) > maxTransactItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(recs), maxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		item, err := s.prepare(rec)
		if err != nil {
			return err
		}
		id := rec.Kind() + "|" + rec.Meta().KeyName
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Meta().KeyName)
		}
		seen[id] = true
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.config.RecordTable),
				Item:      item,
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return storageErr("commit", err)
	}
	for _, rec := range recs {
		recordsWritten.WithLabelValues(rec.Kind(), "commit").Inc()
	}
	return nil
}

// Expire sets rec's TTL to at. From then on the record reads as absent;
// DynamoDB removes it some time later. Returns ErrNotFound if rec was never
// written.
func (s *Store) Expire(ctx context.Context, rec Record, at time.Time) error {
	meta := rec.Meta()
	if err := checkKey(meta); err != nil {
		return err
	}
	ttl := at.Unix()

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.RecordTable),
		Key:                 s.recordKey(rec.Kind(), meta.Subdomain, meta.KeyName),
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(key_name)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", ErrNotFound, meta.KeyName)
		}
		return storageErr("expire", err)
	}
	meta.TTL = ttl
	return nil
}

// prepare validates rec, stamps its managed fields and marshals it.
func (s *Store) prepare(rec Record) (map[string]types.AttributeValue, error) {
	meta := rec.Meta()
	if err := validateSubdomain(meta.Subdomain); err != nil {
		return nil, err
	}
	if err := checkKey(meta); err != nil {
		return nil, err
	}
	if v, ok := rec.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	if t, ok := rec.(Toucher); ok {
		t.Touch(now)
	}
	nowISO := now.Format(time.RFC3339)
	if meta.CreatedAt == "" {
		meta.CreatedAt = nowISO
	}
	meta.UpdatedAt = nowISO

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", rec.Kind(), err)
	}
	item["pk"] = &types.AttributeValueMemberS{Value: s.partitionKey(rec.Kind(), meta.Subdomain)}
	return item, nil
}

// partitionKey computes the records table partition of kind in subdomain.
func (s *Store) partitionKey(kind, subdomain string) string {
	return shard.PartitionKey(kind, subdomain, s.config.NumShards)
}

// recordKey builds the primary key of the record stored under key.
func (s *Store) recordKey(kind, subdomain, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":       &types.AttributeValueMemberS{Value: s.partitionKey(kind, subdomain)},
		"key_name": &types.AttributeValueMemberS{Value: key},
	}
}

// rangeQuery builds a query for the unexpired items of partition pk whose
// key lies in KeyRange(prefix).
func (s *Store) rangeQuery(pk, prefix string) *dynamodb.QueryInput {
	lo, hi := KeyRange(prefix)
	keyCond := "#pk = :pk AND #key BETWEEN :lo AND :hi"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
		":lo": &types.AttributeValueMemberS{Value: lo},
		":hi": &types.AttributeValueMemberS{Value: hi},
	}
	if prefix == "" {
		// DynamoDB rejects empty key values; every key is >= "".
		keyCond = "#pk = :pk AND #key <= :hi"
		delete(values, ":lo")
	}

	ttlNames, ttlValues := TTLFilterAttributes(s.now())
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.RecordTable),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String(TTLFilter),
		ExpressionAttributeNames:  merge(map[string]string{"#pk": "pk", "#key": "key_name"}, ttlNames),
		ExpressionAttributeValues: merge(values, ttlValues),
		ConsistentRead:            aws.Bool(s.config.ConsistentReads),
	}
	if s.config.PageSize > 0 {
		input.Limit = aws.Int32(s.config.PageSize)
	}
	return input
}

// keyOf returns the key_name attribute of a raw item.
func keyOf(raw map[string]types.AttributeValue) string {
	if v, ok := raw["key_name"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
