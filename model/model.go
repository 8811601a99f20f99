// Package model defines the record types stored per subdomain.
package model

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jacentio/sammy/store"
)

// Person is a PFIF person record.
type Person struct {
	store.Base

	AuthorName  string `dynamodbav:"author_name,omitempty"`
	AuthorEmail string `dynamodbav:"author_email,omitempty"`
	AuthorPhone string `dynamodbav:"author_phone,omitempty"`
	SourceName  string `dynamodbav:"source_name,omitempty"`
	SourceDate  string `dynamodbav:"source_date,omitempty"`
	SourceURL   string `dynamodbav:"source_url,omitempty"`
	FirstName   string `dynamodbav:"first_name,omitempty"`
	LastName    string `dynamodbav:"last_name,omitempty"`
	HomeCity    string `dynamodbav:"home_city,omitempty"`
	HomeState   string `dynamodbav:"home_state,omitempty"`
	HomeCountry string `dynamodbav:"home_country,omitempty"`
	PhotoURL    string `dynamodbav:"photo_url,omitempty"`
	Other       string `dynamodbav:"other,omitempty"`
}

func (Person) Kind() string { return "Person" }

// Validate requires a name.
func (p *Person) Validate() error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("%w: person first_name or last_name", store.ErrMissingField)
	}
	return nil
}

// Note is a PFIF note attached to a person record.
type Note struct {
	store.Base

	PersonRecordID string `dynamodbav:"person_record_id"`
	LinkedRecordID string `dynamodbav:"linked_person_record_id,omitempty"`
	AuthorName     string `dynamodbav:"author_name,omitempty"`
	AuthorEmail    string `dynamodbav:"author_email,omitempty"`
	SourceDate     string `dynamodbav:"source_date,omitempty"`
	Found          bool   `dynamodbav:"found,omitempty"`
	LastKnownPlace string `dynamodbav:"last_known_location,omitempty"`
	Text           string `dynamodbav:"text,omitempty"`
}

func (Note) Kind() string { return "Note" }

// Validate requires the person the note is about.
func (n *Note) Validate() error {
	if n.PersonRecordID == "" {
		return fmt.Errorf("%w: note person_record_id", store.ErrMissingField)
	}
	return nil
}

// StaticContent is a document served verbatim for a subdomain.
type StaticContent struct {
	store.Base

	Body         []byte    `dynamodbav:"body,omitempty"`
	ContentType  string    `dynamodbav:"content_type"`
	Status       int       `dynamodbav:"status"`
	LastModified time.Time `dynamodbav:"last_modified"`

	// Headers are extra response headers, one "Name: value" per entry.
	Headers []string `dynamodbav:"headers,omitempty"`
}

func (StaticContent) Kind() string { return "StaticContent" }

// Validate requires a content type and defaults the status to 200.
func (c *StaticContent) Validate() error {
	if c.ContentType == "" {
		return fmt.Errorf("%w: static content content_type", store.ErrMissingField)
	}
	if c.Status == 0 {
		c.Status = http.StatusOK
	}
	if http.StatusText(c.Status) == "" {
		return fmt.Errorf("static content: invalid status %d", c.Status)
	}
	return nil
}

// Touch sets LastModified on every write.
func (c *StaticContent) Touch(now time.Time) {
	c.LastModified = now
}

// Kinds returns a registry of every record type in this package.
func Kinds() *store.Registry {
	return store.NewRegistry(&Person{}, &Note{}, &StaticContent{})
}
