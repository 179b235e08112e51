package pathstore

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Chunk keys are ULIDs: 48-bit millisecond timestamp plus 80 random bits,
// Crockford base32 encoded to 26 characters. A per-millisecond sequence in
// the first random bytes keeps keys generated in one process sorted.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func newULID() string {
	return newULIDAt(time.Now())
}

func newULIDAt(t time.Time) string {
	ulidMu.Lock()
	ts := uint64(t.UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}
	seq := lastSeq
	ulidMu.Unlock()

	var b [16]byte
	for i := range 6 {
		b[i] = byte(ts >> (40 - 8*i))
	}
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], seq)
	return encodeULID(b)
}

// encodeULID writes 128 bits as 26 base32 digits, most significant first.
// The leading digit carries only the top 3 bits.
func encodeULID(b [16]byte) string {
	var out [26]byte
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
