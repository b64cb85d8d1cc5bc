package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ulidEntropy is a single monotonic source shared by all checkpoint id
// generation so ids sort lexicographically within the same millisecond.
var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewCheckpointULID generates a monotonic, lexicographically sortable id
// used as the checkpoints table's natural ordering key.
func NewCheckpointULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
	return id.String()
}
