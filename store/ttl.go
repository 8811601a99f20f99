package store

import (
	"maps"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TTLFilter is the filter expression excluding expired items. Custom queries
// against the records table pair it with TTLFilterAttributes.
const TTLFilter = "attribute_not_exists(#ttl) OR #ttl > :now"

// TTLFilterAttributes returns the expression names and values TTLFilter
// refers to, evaluated at now.
func TTLFilterAttributes(now time.Time) (map[string]string, map[string]types.AttributeValue) {
	return map[string]string{"#ttl": "ttl"},
		map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		}
}

// IsExpired reports whether item carries a TTL at or before now. DynamoDB
// deletes expired items lazily, so reads must check.
func IsExpired(item map[string]types.AttributeValue, now time.Time) bool {
	n, ok := item["ttl"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(n.Value, 10, 64)
	return err == nil && ttl != 0 && ttl <= now.Unix()
}

// merge returns a new map holding every entry of ms; later maps win.
func merge[M ~map[K]V, K comparable, V any](ms ...M) M {
	out := make(M)
	for _, m := range ms {
		maps.Copy(out, m)
	}
	return out
}
