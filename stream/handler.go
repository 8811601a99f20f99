// Package stream provides DynamoDB Streams handlers for the records table.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/sammy/store"
)

// Registrar records a subdomain as known. *store.Subdomains satisfies it.
type Registrar interface {
	Register(ctx context.Context, name string) error
}

// Handler processes records table stream events.
type Handler struct {
	registrar Registrar
	kinds     *store.Registry
	logger    *slog.Logger
}

// NewHandler creates a new stream handler. Only items of a kind in kinds are
// considered records.
func NewHandler(r Registrar, kinds *store.Registry, logger *slog.Logger) *Handler {
	if kinds == nil {
		kinds = store.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registrar: r,
		kinds:     kinds,
		logger:    logger,
	}
}

// HandleRecordInserts registers the subdomain of every newly inserted record.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleRecordInserts(ctx context.Context, event events.DynamoDBEvent) error {
	seen := make(map[string]bool)
	for _, record := range event.Records {
		subdomain, ok := h.subdomainOf(&record)
		if !ok || seen[subdomain] {
			continue
		}
		if err := h.registrar.Register(ctx, subdomain); err != nil {
			h.logger.Error("failed to register subdomain",
				"eventID", record.EventID,
				"subdomain", subdomain,
				"error", err,
			)
			return fmt.Errorf("register %q: %w", subdomain, err) // Will retry, eventually DLQ
		}
		seen[subdomain] = true
	}

	if len(seen) > 0 {
		h.logger.Info("registered subdomains",
			"records", len(event.Records),
			"subdomains", len(seen),
		)
	}
	return nil
}

// subdomainOf returns the subdomain of an inserted record item.
func (h *Handler) subdomainOf(record *events.DynamoDBEventRecord) (string, bool) {
	if record.EventName != "INSERT" {
		return "", false
	}

	image := record.Change.NewImage
	kind, ok := h.kinds.KindOfPartition(getStringAttr(image, "pk"))
	if !ok {
		return "", false
	}

	key := getStringAttr(image, "key_name")
	subdomain := getStringAttr(image, "subdomain")
	prefix, _, err := store.SplitKey(key)
	if err != nil || prefix != subdomain || subdomain == "" {
		h.logger.Warn("skipping record with inconsistent key",
			"eventID", record.EventID,
			"kind", kind,
			"key", key,
			"subdomain", subdomain,
		)
		return "", false
	}
	return subdomain, true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
