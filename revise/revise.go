// Package revise implements the commit-hashing mutation engine: Revise
// (clone, mutate, recompute the commit hash) and Patch (mutate in place,
// leave the commit hash untouched), both exclusive per record via a
// lock-free spinlock rather than a goroutine pool (§5's concurrency model:
// no goroutines, one session open per record at a time).
package revise

import (
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"sync/atomic"

	logging "github.com/ipfs/go-log/v2"

	"github.com/jaksonlabs/carbonfmt/record"
)

var log = logging.Logger("carbonfmt")

var (
	// ErrAlreadyOpen is returned by TryBegin when another session already
	// holds the record's spinlock.
	ErrAlreadyOpen = errors.New("revise: a session is already open on this record")
	// ErrNotOpen is returned by End/Abort when no session is active.
	ErrNotOpen = errors.New("revise: no open session on this record")
	// ErrClosed is returned by any mutation call made after End/Abort.
	ErrClosed = errors.New("revise: session is closed")
)

// lockState values for the per-record flags held in lockTable.
const (
	unlocked int32 = iota
	locked
)

// lockTable attaches an atomic flag to each *record.Record in a side
// table, since Record itself carries no concurrency state (its
// byte layout is the wire format, nothing more).
type lockTable struct {
	mu    sync.Mutex
	flags map[*record.Record]*int32
}

var globalLocks = &lockTable{flags: make(map[*record.Record]*int32)}

// flagFor returns the spinlock flag for r, allocating one on first use. The
// table itself is guarded by a mutex since genuinely concurrent callers
// across different records are an expected case (§5); the flag it hands
// back is then spun on lock-free via atomic.CompareAndSwapInt32.
func (t *lockTable) flagFor(r *record.Record) *int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.flags[r]
	if !ok {
		v := unlocked
		f = &v
		t.flags[r] = f
	}
	return f
}

// tryLock spins briefly (single-threaded callers succeed immediately; a
// genuinely contended caller backs off with runtime.Gosched rather than
// blocking, per §5's no-goroutines model) before giving up.
func tryLock(flag *int32) bool {
	for attempt := 0; attempt < 1000; attempt++ {
		if atomic.CompareAndSwapInt32(flag, unlocked, locked) {
			return true
		}
		runtime.Gosched()
	}
	return false
}

func unlock(flag *int32) {
	atomic.StoreInt32(flag, unlocked)
}

// Mode selects whether End recomputes the commit hash (Revise) or leaves it
// untouched (Patch).
type Mode int

const (
	// ReviseMode clones the original record, lets the caller mutate the
	// clone, and recomputes its commit hash from the payload bytes on End.
	ReviseMode Mode = iota
	// PatchMode mutates the original record in place and never touches its
	// commit hash, even though the payload bytes changed.
	PatchMode
)

// RevisionCounter is an optional, off-by-default in-memory diagnostic: a
// monotonic count of sessions ended against a given record, scoped to
// process lifetime and never persisted in the byte format (§3.2 of
// SPEC_FULL.md). It exists purely for CLI/log diagnostics.
type RevisionCounter struct {
	mu      sync.Mutex
	enabled bool
	counts  map[*record.Record]uint64
}

// NewRevisionCounter returns a RevisionCounter; pass enabled=false to make
// Track a no-op (the default posture, per SPEC_FULL §3.2).
func NewRevisionCounter(enabled bool) *RevisionCounter {
	return &RevisionCounter{enabled: enabled, counts: make(map[*record.Record]uint64)}
}

func (c *RevisionCounter) track(r *record.Record) uint64 {
	if c == nil || !c.enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[r]++
	return c.counts[r]
}

// Context is an open mutation session against one record, obtained via
// TryBegin or Begin.
type Context struct {
	mode     Mode
	original *record.Record
	working  *record.Record // same as original in PatchMode, a clone in ReviseMode
	flag     *int32
	counter  *RevisionCounter
	closed   bool
}

// TryBegin attempts to open a non-blocking session against rec. It returns
// ErrAlreadyOpen immediately if another session holds the spinlock instead
// of waiting.
func TryBegin(rec *record.Record, mode Mode, counter *RevisionCounter) (*Context, error) {
	flag := globalLocks.flagFor(rec)
	if !atomic.CompareAndSwapInt32(flag, unlocked, locked) {
		return nil, ErrAlreadyOpen
	}
	return newContext(rec, mode, flag, counter), nil
}

// Begin opens a session, spinning (bounded, see tryLock) for the record's
// spinlock to free up rather than failing immediately.
func Begin(rec *record.Record, mode Mode, counter *RevisionCounter) (*Context, error) {
	flag := globalLocks.flagFor(rec)
	if !tryLock(flag) {
		return nil, fmt.Errorf("%w: spinlock held past retry budget", ErrAlreadyOpen)
	}
	return newContext(rec, mode, flag, counter), nil
}

func newContext(rec *record.Record, mode Mode, flag *int32, counter *RevisionCounter) *Context {
	working := rec
	if mode == ReviseMode {
		working = rec.Clone()
	}
	return &Context{mode: mode, original: rec, working: working, flag: flag, counter: counter}
}

// Record returns the mutable record this session's callers should address
// iterators and the Inserter at.
func (c *Context) Record() *record.Record {
	return c.working
}

// End commits the session: in ReviseMode it recomputes the payload's
// FNV-1a commit hash and writes it into the clone's commit section (NoKey
// clones get nothing written, matching Record.SetCommitHash's contract);
// in PatchMode the commit hash is left untouched. Either way it releases
// the spinlock. End returns the finished record.
func (c *Context) End() (*record.Record, error) {
	if c.closed {
		return nil, ErrClosed
	}
	defer func() {
		c.closed = true
		unlock(c.flag)
	}()

	if c.mode == ReviseMode {
		key, err := c.working.Key()
		if err != nil {
			return nil, err
		}
		if key.Variant != record.NoKey {
			h := computeCommitHash(c.working)
			if err := c.working.SetCommitHash(h); err != nil {
				return nil, err
			}
		}
	}
	n := c.counter.track(c.working)
	log.Debugf("revise: session ended, mode=%v revision=%d", c.mode, n)
	return c.working, nil
}

// Abort releases the spinlock without committing. In ReviseMode the
// working clone is simply discarded; in PatchMode any bytes already
// written to the original remain (patch mutations are not transactional
// across an abort, matching the no-crash-durability non-goal).
func (c *Context) Abort() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	unlock(c.flag)
	return nil
}

// computeCommitHash hashes the record's payload section (everything from
// PayloadOffset to the end of the buffer) with 64-bit FNV-1a, per §4.11.
func computeCommitHash(r *record.Record) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(r.Bytes()[r.PayloadOffset():])
	return h.Sum64()
}
