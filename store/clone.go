package store

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CloneAs copies every populated attribute of origin into a new record of
// type D stored under the same key, then applies overrides (keyed by
// attribute name). Attributes D has no field for are dropped. Overrides may
// not move the record to another key or subdomain.
//
// CloneAs converts a record between types, e.g. during a schema migration.
// To copy a record into another subdomain use Records.CreateClone.
func CloneAs[D any, DP RecordPtr[D]](origin Record, overrides map[string]any) (DP, error) {
	vals, err := attributevalue.MarshalMap(origin)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", origin.Kind(), err)
	}
	for k, v := range vals {
		if !populated(v) {
			delete(vals, k)
		}
	}
	for k, v := range overrides {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal override %q: %w", k, err)
		}
		vals[k] = av
	}

	key := origin.Meta().KeyName
	if v, ok := vals["key_name"].(*types.AttributeValueMemberS); !ok || v.Value != key {
		return nil, fmt.Errorf("%w: key_name override on %q", ErrKeyMismatch, key)
	}

	dest := DP(new(D))
	if err := attributevalue.UnmarshalMap(vals, dest); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", dest.Kind(), err)
	}
	if err := checkKey(dest.Meta()); err != nil {
		return nil, err
	}
	return dest, nil
}

// zeroTime is how attributevalue marshals an unset time.Time.
var zeroTime = time.Time{}.Format(time.RFC3339Nano)

// populated reports whether v holds a non-empty value.
func populated(v types.AttributeValue) bool {
	switch av := v.(type) {
	case nil, *types.AttributeValueMemberNULL:
		return false
	case *types.AttributeValueMemberS:
		return av.Value != "" && av.Value != zeroTime
	case *types.AttributeValueMemberN:
		return av.Value != "0"
	case *types.AttributeValueMemberBOOL:
		return av.Value
	case *types.AttributeValueMemberB:
		return len(av.Value) > 0
	case *types.AttributeValueMemberL:
		return len(av.Value) > 0
	case *types.AttributeValueMemberM:
		return len(av.Value) > 0
	case *types.AttributeValueMemberSS:
		return len(av.Value) > 0
	case *types.AttributeValueMemberNS:
		return len(av.Value) > 0
	case *types.AttributeValueMemberBS:
		return len(av.Value) > 0
	}
	return true
}
