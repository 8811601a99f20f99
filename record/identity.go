// Package record composes and parses record IDs.
//
// A record ID has the form
//
//	<subdomain>.<home-domain>/<type>.<unique-id>
//
// where the leading domain names the repository that originally created the
// record. A record stored in that same subdomain is an original; a record
// stored anywhere else is a clone.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HomeDomain is the domain under which every subdomain repository is hosted.
const HomeDomain = "k2onepiece.appspot.com"

// ErrMalformedRecordID is returned when a record ID lacks the "/" separator
// (or, for Parse, the "<type>.<unique-id>" local part).
var ErrMalformedRecordID = errors.New("sammy: malformed record id")

// Namespace composes and classifies record IDs for one home domain.
type Namespace struct {
	HomeDomain string
}

// Default is the Namespace rooted at HomeDomain.
var Default = Namespace{HomeDomain: HomeDomain}

// Origin returns the origin domain of records created in subdomain.
func (n Namespace) Origin(subdomain string) string {
	return subdomain + "." + n.HomeDomain
}

// OriginSubdomain returns the subdomain encoded in origin, or false if origin
// is not hosted under this namespace's home domain.
func (n Namespace) OriginSubdomain(origin string) (string, bool) {
	sub, ok := strings.CutSuffix(origin, "."+n.HomeDomain)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// NewID composes the record ID of a new original record.
func (n Namespace) NewID(subdomain, typeName string, uid int64) string {
	return fmt.Sprintf("%s/%s.%d", n.Origin(subdomain), strings.ToLower(typeName), uid)
}

// IsOriginal reports whether recordID was originally created in subdomain.
func (n Namespace) IsOriginal(subdomain, recordID string) (bool, error) {
	origin, _, err := Split(recordID)
	if err != nil {
		return false, err
	}
	return origin == n.Origin(subdomain), nil
}

// IsClone reports whether recordID was created outside subdomain.
func (n Namespace) IsClone(subdomain, recordID string) (bool, error) {
	original, err := n.IsOriginal(subdomain, recordID)
	if err != nil {
		return false, err
	}
	return !original, nil
}

// ComposeOrigin is Default.Origin.
func ComposeOrigin(subdomain string) string { return Default.Origin(subdomain) }

// IsOriginal is Default.IsOriginal.
func IsOriginal(subdomain, recordID string) (bool, error) {
	return Default.IsOriginal(subdomain, recordID)
}

// IsClone is Default.IsClone.
func IsClone(subdomain, recordID string) (bool, error) {
	return Default.IsClone(subdomain, recordID)
}

// Split splits recordID at its first "/" into the origin domain and the
// local part.
func Split(recordID string) (origin, local string, err error) {
	origin, local, ok := strings.Cut(recordID, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRecordID, recordID)
	}
	return origin, local, nil
}

// ID is a fully parsed record ID.
type ID struct {
	Origin string
	Type   string
	Seq    int64
}

// Parse strictly parses a record ID. Record IDs imported from other
// repositories need not satisfy Parse; use Split for the lenient form.
func Parse(recordID string) (ID, error) {
	origin, local, err := Split(recordID)
	if err != nil {
		return ID{}, err
	}
	typ, seq, ok := strings.Cut(local, ".")
	if !ok || origin == "" || typ == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedRecordID, recordID)
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrMalformedRecordID, recordID, err)
	}
	// Only canonical decimal survives a String round trip.
	if n <= 0 || strconv.FormatInt(n, 10) != seq {
		return ID{}, fmt.Errorf("%w: %q: non-canonical sequence %q", ErrMalformedRecordID, recordID, seq)
	}
	return ID{Origin: origin, Type: typ, Seq: n}, nil
}

// String formats id as a record ID.
func (id ID) String() string {
	return fmt.Sprintf("%s/%s.%d", id.Origin, id.Type, id.Seq)
}
