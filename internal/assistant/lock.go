package assistant

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLock serializes work per key with a fixed set of mutexes.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
