// Package uid implements the process-local unique id generator used for
// autokey records and for disambiguating NoKey commit hashes (§4.11, §5).
// It combines wall-clock high bits, a per-process magic value, and a
// lock-free process-wide atomic counter, mirroring the store
// package's combination of a process-wide atomic sequence with an
// injectable clock for deterministic tests.
package uid

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Clock is the injectable time source; tests substitute clock.NewMock() the
// same way the teacher's rate-limited flush logic does.
var Clock clock.Clock = clock.New()

var (
	processMagic = newProcessMagic()
	counter      uint64
)

func newProcessMagic() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable for identity
		// generation; fall back to a fixed, clearly-non-random magic so the
		// process can still make progress instead of panicking.
		return 0xA5A5A5A5
	}
	return binary.LittleEndian.Uint32(b[:])
}

// Generate returns a fresh 64-bit id: the high 20 bits are wall-clock
// derived, the next 12 bits are the process magic, and the low 32 bits are
// an atomically incremented counter. The 20-bit time field wraps about
// every 18 minutes (2^40 ns); ids from one process increase within one such
// period, and an id generated after a wrap is smaller than one generated
// before it. Not globally unique across processes sharing the same clock
// tick and magic, which is an accepted limitation of a disambiguation id
// rather than a cryptographic identifier.
func Generate() uint64 {
	now := uint64(Clock.Now().UnixNano())
	highBits := (now >> 20) & 0xFFFFF // ~1 ms (2^20 ns) granularity in the high bits
	magicBits := uint64(processMagic) & 0xFFF
	seq := atomic.AddUint64(&counter, 1)
	return (highBits << 44) | (magicBits << 32) | (seq & 0xFFFFFFFF)
}

// GenerateFallback returns a UUID-derived 64-bit id for callers that need an
// identity independent of this process's fast-path counter state (e.g. when
// merging records produced by independent processes). Grounded on the
// teacher's use of google/uuid for node/session identifiers.
func GenerateFallback() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}
