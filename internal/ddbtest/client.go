// Package ddbtest provides an in-memory DynamoDB client for tests.
//
// It understands only the expression shapes the store package emits:
// attribute_exists / attribute_not_exists conditions, single-clause SET and
// ADD updates, key conditions of the form "pk = v", "pk = v AND sk BETWEEN
// a AND b" and "pk = v AND sk <= b", and the store's TTL filter. String
// comparisons are bytewise, as in DynamoDB.
package ddbtest

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

type item = map[string]types.AttributeValue

type table struct {
	hashKey  string
	rangeKey string
	items    map[string]item
}

func (t *table) id(key item) (string, error) {
	h, ok := key[t.hashKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", validationErr("missing hash key %q", t.hashKey)
	}
	r, ok := key[t.rangeKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", validationErr("missing range key %q", t.rangeKey)
	}
	return h.Value + "\x00" + r.Value, nil
}

// Client is an in-memory stand-in for *dynamodb.Client. It is safe for
// concurrent use; every operation is atomic.
type Client struct {
	mu     sync.Mutex
	tables map[string]*table
	err    error
	calls  map[string]int
}

// New returns an empty Client with no tables.
func New() *Client {
	return &Client{
		tables: make(map[string]*table),
		calls:  make(map[string]int),
	}
}

// CreateTable adds a table with string hash and range keys.
func (c *Client) CreateTable(name, hashKey, rangeKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &table{hashKey: hashKey, rangeKey: rangeKey, items: make(map[string]item)}
}

// FailWith makes every subsequent operation return err (nil clears it).
func (c *Client) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns how many times op (e.g. "Query") was called.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Seed stores raw items without any checks.
func (c *Client) Seed(name string, items ...map[string]types.AttributeValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(name)
	if err != nil {
		return err
	}
	for _, it := range items {
		id, err := t.id(it)
		if err != nil {
			return err
		}
		t.items[id] = clone(it)
	}
	return nil
}

// Items returns a copy of every item in the table, in key order.
func (c *Client) Items(name string) []map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(t.items[id]))
	}
	return out
}

func (c *Client) begin(op string) error {
	c.calls[op]++
	return c.err
}

func (c *Client) table(name string) (*table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + name)}
	}
	return t, nil
}

// GetItem implements the DynamoDB GetItem call.
func (c *Client) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetItem"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.id(in.Key)
	if err != nil {
		return nil, err
	}
	out := &dynamodb.GetItemOutput{}
	if it, ok := t.items[id]; ok {
		out.Item = clone(it)
	}
	return out, nil
}

// PutItem implements the DynamoDB PutItem call.
func (c *Client) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("PutItem"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.id(in.Item)
	if err != nil {
		return nil, err
	}
	ok, err := condition(aws.ToString(in.ConditionExpression), in.ExpressionAttributeNames, t.items[id])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	t.items[id] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

var (
	setExpr = regexp.MustCompile(`^SET (\S+) = (\S+)$`)
	addExpr = regexp.MustCompile(`^ADD (\S+) (\S+)$`)
)

// UpdateItem implements the DynamoDB UpdateItem call for a single SET or ADD
// clause. A missing item is created, as in DynamoDB.
func (c *Client) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("UpdateItem"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	id, err := t.id(in.Key)
	if err != nil {
		return nil, err
	}
	current := t.items[id]
	ok, err := condition(aws.ToString(in.ConditionExpression), in.ExpressionAttributeNames, current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	next := clone(current)
	if next == nil {
		next = clone(in.Key)
	}
	expr := aws.ToString(in.UpdateExpression)
	var attr string
	switch {
	case setExpr.MatchString(expr):
		m := setExpr.FindStringSubmatch(expr)
		attr = resolve(m[1], in.ExpressionAttributeNames)
		v, ok := in.ExpressionAttributeValues[m[2]]
		if !ok {
			return nil, validationErr("missing value %s", m[2])
		}
		next[attr] = v
	case addExpr.MatchString(expr):
		m := addExpr.FindStringSubmatch(expr)
		attr = resolve(m[1], in.ExpressionAttributeNames)
		delta, err := number(in.ExpressionAttributeValues[m[2]])
		if err != nil {
			return nil, err
		}
		var base int64
		if cur, ok := next[attr]; ok {
			if base, err = number(cur); err != nil {
				return nil, err
			}
		}
		next[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(base+delta, 10)}
	default:
		return nil, validationErr("unsupported update expression %q", expr)
	}
	t.items[id] = next

	out := &dynamodb.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueUpdatedNew {
		out.Attributes = item{attr: next[attr]}
	}
	return out, nil
}

var (
	hashCond    = regexp.MustCompile(`^(\S+) = (\S+)$`)
	betweenCond = regexp.MustCompile(`^(\S+) = (\S+) AND (\S+) BETWEEN (\S+) AND (\S+)$`)
	leCond      = regexp.MustCompile(`^(\S+) = (\S+) AND (\S+) <= (\S+)$`)
	ttlFilter   = regexp.MustCompile(`^attribute_not_exists\((\S+)\) OR (\S+) > (\S+)$`)
)

// Query implements the DynamoDB Query call, including Limit and
// ExclusiveStartKey pagination. Limit counts items before filtering.
func (c *Client) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Query"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}

	names, values := in.ExpressionAttributeNames, in.ExpressionAttributeValues
	var hashVal string
	lo, hi := "", ""
	hasLo, hasHi := false, false
	expr := aws.ToString(in.KeyConditionExpression)
	switch {
	case betweenCond.MatchString(expr):
		m := betweenCond.FindStringSubmatch(expr)
		hashVal = str(values[m[2]])
		lo, hi = str(values[m[4]]), str(values[m[5]])
		hasLo, hasHi = true, true
	case leCond.MatchString(expr):
		m := leCond.FindStringSubmatch(expr)
		hashVal = str(values[m[2]])
		hi, hasHi = str(values[m[4]]), true
	case hashCond.MatchString(expr):
		m := hashCond.FindStringSubmatch(expr)
		hashVal = str(values[m[2]])
	default:
		return nil, validationErr("unsupported key condition %q", expr)
	}

	var matched []item
	for _, it := range t.items {
		if str(it[t.hashKey]) != hashVal {
			continue
		}
		rk := str(it[t.rangeKey])
		if (hasLo && rk < lo) || (hasHi && rk > hi) {
			continue
		}
		matched = append(matched, it)
	}
	slices.SortFunc(matched, func(a, b item) int {
		return strings.Compare(str(a[t.rangeKey]), str(b[t.rangeKey]))
	})
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		slices.Reverse(matched)
	}

	if start := in.ExclusiveStartKey; start != nil {
		after := str(start[t.rangeKey])
		i := slices.IndexFunc(matched, func(it item) bool { return str(it[t.rangeKey]) == after })
		if i >= 0 {
			matched = matched[i+1:]
		}
	}

	out := &dynamodb.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = item{t.hashKey: last[t.hashKey], t.rangeKey: last[t.rangeKey]}
	}

	filter := aws.ToString(in.FilterExpression)
	for _, it := range matched {
		if filter != "" {
			ok, err := ttlFilterMatch(filter, names, values, it)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out.Items = append(out.Items, clone(it))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = int32(len(matched))
	return out, nil
}

// TransactWriteItems implements the DynamoDB TransactWriteItems call for Put
// actions. Either every put is applied or none is.
func (c *Client) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("TransactWriteItems"); err != nil {
		return nil, err
	}
	if len(in.TransactItems) > 100 {
		return nil, validationErr("too many transact items: %d", len(in.TransactItems))
	}

	type write struct {
		t  *table
		id string
		it item
	}
	writes := make([]write, 0, len(in.TransactItems))
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	seen := make(map[string]bool)
	failed := false
	for i, ti := range in.TransactItems {
		if ti.Put == nil {
			return nil, validationErr("only Put is supported")
		}
		name := aws.ToString(ti.Put.TableName)
		t, err := c.table(name)
		if err != nil {
			return nil, err
		}
		id, err := t.id(ti.Put.Item)
		if err != nil {
			return nil, err
		}
		if seen[name+"\x00"+id] {
			return nil, validationErr("Transaction request cannot include multiple operations on one item")
		}
		seen[name+"\x00"+id] = true
		ok, err := condition(aws.ToString(ti.Put.ConditionExpression), ti.Put.ExpressionAttributeNames, t.items[id])
		if err != nil {
			return nil, err
		}
		code := "None"
		if !ok {
			code = "ConditionalCheckFailed"
			failed = true
		}
		reasons[i] = types.CancellationReason{Code: aws.String(code)}
		writes = append(writes, write{t: t, id: id, it: ti.Put.Item})
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for _, w := range writes {
		w.t.items[w.id] = clone(w.it)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

var (
	notExistsCond = regexp.MustCompile(`^attribute_not_exists\((\S+)\)$`)
	existsCond    = regexp.MustCompile(`^attribute_exists\((\S+)\)$`)
)

// condition evaluates a single attribute_exists/attribute_not_exists
// condition against current (nil if the item is absent).
func condition(expr string, names map[string]string, current item) (bool, error) {
	switch {
	case expr == "":
		return true, nil
	case notExistsCond.MatchString(expr):
		attr := resolve(notExistsCond.FindStringSubmatch(expr)[1], names)
		_, ok := current[attr]
		return !ok, nil
	case existsCond.MatchString(expr):
		attr := resolve(existsCond.FindStringSubmatch(expr)[1], names)
		_, ok := current[attr]
		return ok, nil
	}
	return false, validationErr("unsupported condition %q", expr)
}

func ttlFilterMatch(expr string, names map[string]string, values map[string]types.AttributeValue, it item) (bool, error) {
	m := ttlFilter.FindStringSubmatch(expr)
	if m == nil {
		return false, validationErr("unsupported filter %q", expr)
	}
	attr := resolve(m[1], names)
	cur, ok := it[attr]
	if !ok {
		return true, nil
	}
	have, err := number(cur)
	if err != nil {
		return false, err
	}
	limit, err := number(values[m[3]])
	if err != nil {
		return false, err
	}
	return have > limit, nil
}

func resolve(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

func str(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func number(v types.AttributeValue) (int64, error) {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, validationErr("expected number, got %T", v)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

func clone(it item) item {
	if it == nil {
		return nil
	}
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func validationErr(format string, args ...any) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: fmt.Sprintf(format, args...),
	}
}
