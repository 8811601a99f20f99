package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IDAllocator hands out integers that are never handed out twice.
// Allocate must be a single atomic increment in the backing store.
type IDAllocator interface {
	Allocate(ctx context.Context) (int64, error)
}

const (
	uniqueIDPK      = "UniqueId"
	uniqueIDCounter = "counter"
	uniqueIDMarker  = "marker"
)

// DynamoAllocator allocates IDs from an atomic counter item in the unique ID
// table and records a marker item for each allocated ID.
type DynamoAllocator struct {
	client API
	table  string
}

// NewDynamoAllocator creates an allocator backed by table.
func NewDynamoAllocator(client API, table string) *DynamoAllocator {
	return &DynamoAllocator{client: client, table: table}
}

// Allocate increments the counter and claims the marker for the new value.
func (a *DynamoAllocator) Allocate(ctx context.Context) (int64, error) {
	out, err := a.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(a.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: uniqueIDPK},
			"sk": &types.AttributeValueMemberS{Value: uniqueIDCounter},
		},
		UpdateExpression:         aws.String("ADD #next :one"),
		ExpressionAttributeNames: map[string]string{"#next": "next_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	next, ok := out.Attributes["next_id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("counter update returned no next_id")
	}
	id, err := strconv.ParseInt(next.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse next_id: %w", err)
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item: map[string]types.AttributeValue{
			"pk":         &types.AttributeValueMemberS{Value: uniqueIDPK + "#" + next.Value},
			"sk":         &types.AttributeValueMemberS{Value: uniqueIDMarker},
			"created_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, fmt.Errorf("%w: %d", ErrIDCollision, id)
		}
		return 0, err
	}
	return id, nil
}

// MemoryAllocator is an in-process IDAllocator. IDs are unique only for the
// lifetime of the allocator.
type MemoryAllocator struct {
	next atomic.Int64
}

// NewMemoryAllocator creates an allocator whose first ID is start+1.
func NewMemoryAllocator(start int64) *MemoryAllocator {
	a := &MemoryAllocator{}
	a.next.Store(start)
	return a
}

// Allocate returns the next ID.
func (a *MemoryAllocator) Allocate(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.next.Add(1), nil
}
