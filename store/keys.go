package store

import (
	"fmt"
	"strings"
)

// rangeSentinel bounds prefix scans from above. Keys are compared as UTF-8
// bytes, and U+FFFF sorts after every character a subdomain or record ID
// realistically contains. Changing it changes which keys a prefix includes.
const rangeSentinel = "\uffff"

// Key composes the storage key of recordID in subdomain.
func Key(subdomain, recordID string) string {
	return subdomain + ":" + recordID
}

// SplitKey splits a storage key into its subdomain and record ID.
func SplitKey(key string) (subdomain, recordID string, err error) {
	subdomain, recordID, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return subdomain, recordID, nil
}

// KeyRange returns the inclusive key bounds of every key starting with prefix.
func KeyRange(prefix string) (lo, hi string) {
	return prefix, prefix + rangeSentinel
}

// InKeyRange reports whether key lies within KeyRange(prefix).
func InKeyRange(key, prefix string) bool {
	lo, hi := KeyRange(prefix)
	return lo <= key && key <= hi
}

func validateSubdomain(name string) error {
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidSubdomain, name)
	}
	return nil
}

// checkKey verifies that b's subdomain field agrees with its key prefix.
func checkKey(b *Base) error {
	sub, _, err := SplitKey(b.KeyName)
	if err != nil {
		return err
	}
	if sub != b.Subdomain {
		return fmt.Errorf("%w: key %q, subdomain %q", ErrKeyMismatch, b.KeyName, b.Subdomain)
	}
	return nil
}
