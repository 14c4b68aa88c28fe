package world

import "sync/atomic"

// entityIDCounter generates unique runtime entity IDs.
// Starts at 16_000_000 to stay clear of persisted-ID space; IDs are never
// reused within a process, so a removed entity's ID stays dead.
var entityIDCounter atomic.Int32

func init() {
	entityIDCounter.Store(16_000_000)
}

// NextEntityID returns a unique ID for a new entity instance.
func NextEntityID() int32 {
	return entityIDCounter.Add(1)
}
