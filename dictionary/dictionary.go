// Package dictionary stubs a consumer-facing interface for the
// string-dictionary/archive subsystem the original format pairs with
// carbon records for string interning (ng5_string_dic.h's insert/
// locate/extract/remove surface). §1 scopes the subsystem's internals
// out of core: this package only needs to give callers something to
// program against, not a production string-interning engine, so the
// single provided implementation is the naive single-threaded variant
// (ng5_string_dic_sync.h's string_dic_create_sync), not the sharded
// async one.
package dictionary

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Lookup/Remove for an id the dictionary has
// never issued or has already removed.
var ErrNotFound = errors.New("dictionary: id not found")

// Dictionary interns strings behind small integer ids, the consumer
// surface a carbonfmt record's string-typed leaves can be built on top
// of instead of storing repeated string payloads inline.
type Dictionary interface {
	// Insert interns s, returning its id. Re-inserting an already-known
	// string returns the same id (naive dictionaries dedup by value).
	Insert(s string) (uint64, error)
	// Lookup resolves id back to its string.
	Lookup(id uint64) (string, bool)
	// Remove drops id from the dictionary.
	Remove(id uint64) error
	// Len reports the number of distinct interned strings.
	Len() int
}

// naive is a single-threaded, map-backed Dictionary: the Go analogue of
// the original's naive sync string dictionary (one lock, one hash map,
// no bucket sharding).
type naive struct {
	mu      sync.Mutex
	byID    map[uint64]string
	byValue map[string]uint64
	next    uint64
}

// NewNaive returns an empty in-memory Dictionary.
func NewNaive() Dictionary {
	return &naive{
		byID:    make(map[uint64]string),
		byValue: make(map[string]uint64),
	}
}

func (d *naive) Insert(s string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byValue[s]; ok {
		return id, nil
	}
	id := d.next
	d.next++
	d.byID[id] = s
	d.byValue[s] = id
	return id, nil
}

func (d *naive) Lookup(id uint64) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byID[id]
	return s, ok
}

func (d *naive) Remove(id uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.byID, id)
	delete(d.byValue, s)
	return nil
}

func (d *naive) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}
