package store

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable build identifier.
func NewID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}
