package cache

import (
	"sync"
	"unsafe"

	"github.com/zeebo/xxh3"
)

// key is the hashed identity of an origin. The 64-bit value indexes the
// generation maps; the full 128-bit sum is kept per entry as a collision
// guard so distinct origins never alias.
type key struct {
	v  uint64
	hi uint64
	lo uint64
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

func newKey(origin string) key {
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.Write(unsafe.Slice(unsafe.StringData(origin), len(origin)))
	u128 := hasher.Sum128()

	k := key{
		v:  hasher.Sum64(),
		hi: u128.Hi,
		lo: u128.Lo,
	}

	hasherPool.Put(hasher)
	return k
}

func (k key) isTheSame(other key) bool {
	return k.v == other.v && k.hi == other.hi && k.lo == other.lo
}
