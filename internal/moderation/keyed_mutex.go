package moderation

import (
	"hash/fnv"
	"sync"
)

const mutexStripes = 64

// keyedMutex serializes work per state key while letting distinct users
// proceed in parallel. Striping bounds the lock table; collisions only
// cost contention, never correctness.
type keyedMutex struct {
	stripes [mutexStripes]sync.Mutex
}

func (m *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	stripe := &m.stripes[h.Sum32()%mutexStripes]
	stripe.Lock()
	return stripe.Unlock
}
