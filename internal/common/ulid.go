package common

import "github.com/oklog/ulid/v2"

// NewULID returns a 26-char, lexicographically sortable id. IDs minted in the same
// millisecond by this process are strictly increasing.
func NewULID() string {
	return ulid.Make().String()
}
