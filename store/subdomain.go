package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// subdomainPK is the records table partition holding subdomain markers.
const subdomainPK = "Subdomain"

// Subdomains tracks the known subdomains. A subdomain is a marker item whose
// key is the subdomain name; it has no other fields.
type Subdomains struct {
	s *Store
}

// Subdomains returns the subdomain registry backed by s.
func (s *Store) Subdomains() *Subdomains {
	return &Subdomains{s: s}
}

// Register records name as a subdomain. Registering an existing subdomain is
// a no-op.
func (d *Subdomains) Register(ctx context.Context, name string) error {
	if err := validateSubdomain(name); err != nil {
		return err
	}
	_, err := d.s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.s.config.RecordTable),
		Item: map[string]types.AttributeValue{
			"pk":         &types.AttributeValueMemberS{Value: subdomainPK},
			"key_name":   &types.AttributeValueMemberS{Value: name},
			"created_at": &types.AttributeValueMemberS{Value: d.s.now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(key_name)"),
	})

	// Ignore condition failure - already registered
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	if err != nil {
		return storageErr("register subdomain", err)
	}
	return nil
}

// Exists reports whether name is a registered subdomain.
func (d *Subdomains) Exists(ctx context.Context, name string) (bool, error) {
	out, err := d.s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.s.config.RecordTable),
		Key: map[string]types.AttributeValue{
			"pk":       &types.AttributeValueMemberS{Value: subdomainPK},
			"key_name": &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(d.s.config.ConsistentReads),
	})
	if err != nil {
		return false, storageErr("get subdomain", err)
	}
	return out.Item != nil, nil
}

// List returns every registered subdomain name in key order.
func (d *Subdomains) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := dynamodb.NewQueryPaginator(d.s.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.s.config.RecordTable),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "pk",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: subdomainPK},
		},
		ConsistentRead: aws.Bool(d.s.config.ConsistentReads),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageErr("list subdomains", err)
		}
		for _, item := range page.Items {
			names = append(names, keyOf(item))
		}
	}
	return names, nil
}
