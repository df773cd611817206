package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// handleLocks serializes read-modify-write cycles per handle. Distinct
// handles may share a stripe.
type handleLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *handleLocks) lock(handle string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(handle))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
