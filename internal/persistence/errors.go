package persistence

import "errors"

// ErrCorruptRecord marks stored data that cannot be turned back into an
// event. Stores return it for an unreadable container; the service wraps it
// for individual records it skips.
var ErrCorruptRecord = errors.New("persistence: corrupt record")
