package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/sammy/store"
)

// --- getStringAttr Tests ---

func TestGetStringAttr_ExistingString(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"key_name": events.NewStringAttribute("foo:a"),
	}

	result := getStringAttr(image, "key_name")
	if result != "foo:a" {
		t.Errorf("expected 'foo:a', got %q", result)
	}
}

func TestGetStringAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"other": events.NewStringAttribute("value"),
	}

	result := getStringAttr(image, "key_name")
	if result != "" {
		t.Errorf("expected empty string for missing key, got %q", result)
	}
}

func TestGetStringAttr_NilImage(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue

	result := getStringAttr(image, "key_name")
	if result != "" {
		t.Errorf("expected empty string for nil image, got %q", result)
	}
}

func TestGetStringAttr_NumberAttribute(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"ttl": events.NewNumberAttribute("1234567890"),
	}

	result := getStringAttr(image, "ttl")
	if result != "" {
		t.Errorf("expected empty string for number attribute, got %q", result)
	}
}

func TestGetStringAttr_UnicodeValue(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"subdomain": events.NewStringAttribute("日本語テスト"),
	}

	result := getStringAttr(image, "subdomain")
	if result != "日本語テスト" {
		t.Errorf("expected '日本語テスト', got %q", result)
	}
}

// --- subdomainOf Tests ---

func TestSubdomainOf(t *testing.T) {
	h := NewHandler(nil, store.NewRegistry(&testRecord{}), nil)

	image := func(pk, key, sub string) map[string]events.DynamoDBAttributeValue {
		return map[string]events.DynamoDBAttributeValue{
			"pk":        events.NewStringAttribute(pk),
			"key_name":  events.NewStringAttribute(key),
			"subdomain": events.NewStringAttribute(sub),
		}
	}

	tests := []struct {
		name      string
		eventName string
		image     map[string]events.DynamoDBAttributeValue
		expected  string
		ok        bool
	}{
		{"insert", "INSERT", image("Test#00", "foo:a", "foo"), "foo", true},
		{"sharded partition", "INSERT", image("Test#1f", "bar:b", "bar"), "bar", true},
		{"modify", "MODIFY", image("Test#00", "foo:a", "foo"), "", false},
		{"remove", "REMOVE", image("Test#00", "foo:a", "foo"), "", false},
		{"unknown kind", "INSERT", image("Other#00", "foo:a", "foo"), "", false},
		{"subdomain marker", "INSERT", image("Subdomain", "foo", ""), "", false},
		{"key mismatch", "INSERT", image("Test#00", "foo:a", "bar"), "", false},
		{"malformed key", "INSERT", image("Test#00", "fooa", "foo"), "", false},
		{"no image", "INSERT", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &events.DynamoDBEventRecord{
				EventName: tt.eventName,
				Change:    events.DynamoDBStreamRecord{NewImage: tt.image},
			}
			sub, ok := h.subdomainOf(record)
			if sub != tt.expected || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, sub, ok)
			}
		})
	}
}

func TestHandleRecordInserts_NilRegistrarUnused(t *testing.T) {
	// Events without records never reach the registrar.
	h := NewHandler(nil, nil, nil)
	err := h.HandleRecordInserts(context.Background(), events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{{EventName: "INSERT"}},
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

type testRecord struct {
	store.Base
}

func (testRecord) Kind() string { return "Test" }
