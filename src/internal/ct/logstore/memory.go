// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logstore

import (
	"crypto/sha256"
	"sync"
)

// MemoryDB is an in-memory [Database]. It provides the full store contract
// for a single process: content-hash deduplication, sequence-indexed
// lookup, tree head history, and observer notification.
//
// MemoryDB is safe for concurrent use by multiple goroutines.
type MemoryDB struct {
	mu        sync.RWMutex
	byHash    map[[sha256.Size]byte]Logged
	bySeq     map[int64][sha256.Size]byte
	treeHeads map[uint64]TreeHead
	latest    TreeHead
	hasHead   bool
	closed    bool

	notifier treeHeadNotifier
}

// NewMemoryDB creates an empty in-memory store.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		byHash:    make(map[[sha256.Size]byte]Logged),
		bySeq:     make(map[int64][sha256.Size]byte),
		treeHeads: make(map[uint64]TreeHead),
	}
}

// CreateSequencedEntry stores an entry that already carries its sequence
// number. Duplicate content hashes and sequence collisions are rejected,
// never overwritten.
func (db *MemoryDB) CreateSequencedEntry(entry Logged) WriteResult {
	seq, ok := entry.SequenceNumber()
	if !ok {
		return WriteMissingSequence
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	hash := entry.Hash()
	if _, exists := db.byHash[hash]; exists {
		return WriteDuplicateHash
	}
	if _, exists := db.bySeq[seq]; exists {
		return WriteSequenceInUse
	}

	db.byHash[hash] = entry
	db.bySeq[seq] = hash
	return WriteOK
}

// WriteTreeHead records a tree head. A head reusing an earlier timestamp is
// rejected. When the head becomes the latest, observers are notified after
// the store lock is released.
func (db *MemoryDB) WriteTreeHead(th TreeHead) WriteResult {
	if th.Timestamp == 0 {
		return WriteMissingTimestamp
	}

	db.mu.Lock()
	if _, exists := db.treeHeads[th.Timestamp]; exists {
		db.mu.Unlock()
		return WriteDuplicateTimestamp
	}

	db.treeHeads[th.Timestamp] = th
	isLatest := !db.hasHead || th.Timestamp > db.latest.Timestamp
	if isLatest {
		db.latest = th
		db.hasHead = true
	}
	db.mu.Unlock()

	if isLatest {
		db.notifier.notify(th)
	}
	return WriteOK
}

// LookupByHash returns the entry with the given content hash.
func (db *MemoryDB) LookupByHash(hash [sha256.Size]byte) (Logged, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// LookupByIndex returns the entry assigned the given sequence number.
func (db *MemoryDB) LookupByIndex(seq int64) (Logged, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	hash, ok := db.bySeq[seq]
	if !ok {
		return nil, ErrNotFound
	}
	return db.byHash[hash], nil
}

// LatestTreeHead returns the most recently recorded tree head.
func (db *MemoryDB) LatestTreeHead() (TreeHead, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.hasHead {
		return TreeHead{}, ErrNoTreeHead
	}
	return db.latest, nil
}

// TreeSize returns the number of sequenced entries.
func (db *MemoryDB) TreeSize() (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.bySeq)), nil
}

// Scan calls fn for each sequenced entry starting at from, in sequence
// order, until fn returns false or a gap is reached.
func (db *MemoryDB) Scan(from int64, fn func(Logged) bool) error {
	for seq := from; ; seq++ {
		db.mu.RLock()
		hash, ok := db.bySeq[seq]
		var entry Logged
		if ok {
			entry = db.byHash[hash]
		}
		db.mu.RUnlock()

		if !ok {
			return nil
		}
		if !fn(entry) {
			return nil
		}
	}
}

// AddTreeHeadObserver registers an observer. If a tree head already exists,
// the observer is immediately notified with the latest one, so late
// subscribers do not miss the current state.
func (db *MemoryDB) AddTreeHeadObserver(obs TreeHeadObserver) error {
	if err := db.notifier.add(obs); err != nil {
		return err
	}

	db.mu.RLock()
	latest, hasHead := db.latest, db.hasHead
	db.mu.RUnlock()

	if hasHead {
		obs.TreeHeadUpdated(latest)
	}
	return nil
}

// RemoveTreeHeadObserver deregisters a previously added observer.
func (db *MemoryDB) RemoveTreeHeadObserver(obs TreeHeadObserver) error {
	return db.notifier.remove(obs)
}

// Close tears the store down. Every observer must have been removed first;
// a remaining registration is a caller bug reported as [ErrObserversRemain].
func (db *MemoryDB) Close() error {
	if !db.notifier.empty() {
		return ErrObserversRemain
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	db.closed = true
	return nil
}
