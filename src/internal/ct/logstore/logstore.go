// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logstore

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no entry exists for the given hash or index.
	ErrNotFound = errors.New("logstore: entry not found")

	// ErrNoTreeHead indicates the store has never recorded a tree head.
	ErrNoTreeHead = errors.New("logstore: no tree head recorded")

	// ErrClosed indicates an operation on a store that was already closed.
	ErrClosed = errors.New("logstore: store is closed")

	// ErrObserverRegistered indicates an observer was added twice.
	ErrObserverRegistered = errors.New("logstore: observer already registered")

	// ErrObserverNotRegistered indicates a remove for an observer that was
	// never added, or was already removed.
	ErrObserverNotRegistered = errors.New("logstore: observer not registered")

	// ErrObserversRemain indicates Close was called while tree head
	// observers were still registered. Every add must be paired with a
	// remove before the store is torn down.
	ErrObserversRemain = errors.New("logstore: observers still registered at close")
)

// TreeHead is a timestamped commitment to the state of the log's append-only
// structure (an STH once signed).
type TreeHead struct {
	// Timestamp is the head's creation time in milliseconds since the epoch.
	Timestamp uint64
	// TreeSize is the number of leaves the head commits to.
	TreeSize int64
	// RootHash is the Merkle tree root over the first TreeSize leaves.
	RootHash [sha256.Size]byte
	// Signature is the log's signature over the head, empty until signed.
	Signature []byte
}

// WriteResult is the outcome of a mutating store operation.
type WriteResult int

const (
	// WriteOK means the write was accepted.
	WriteOK WriteResult = iota
	// WriteDuplicateHash means an entry with the same content hash already
	// exists; the existing entry stands.
	WriteDuplicateHash
	// WriteSequenceInUse means the entry's sequence number is already
	// assigned to a different entry.
	WriteSequenceInUse
	// WriteMissingSequence means the entry carries no sequence number.
	WriteMissingSequence
	// WriteDuplicateTimestamp means a tree head with the same timestamp was
	// already recorded.
	WriteDuplicateTimestamp
	// WriteMissingTimestamp means the tree head carries no timestamp.
	WriteMissingTimestamp
)

// String returns the canonical uppercase name of the write result.
func (r WriteResult) String() string {
	switch r {
	case WriteOK:
		return "OK"
	case WriteDuplicateHash:
		return "DUPLICATE_HASH"
	case WriteSequenceInUse:
		return "SEQUENCE_NUMBER_ALREADY_IN_USE"
	case WriteMissingSequence:
		return "MISSING_SEQUENCE_NUMBER"
	case WriteDuplicateTimestamp:
		return "DUPLICATE_TREE_HEAD_TIMESTAMP"
	case WriteMissingTimestamp:
		return "MISSING_TREE_HEAD_TIMESTAMP"
	default:
		return fmt.Sprintf("UNKNOWN_WRITE_RESULT(%d)", int(r))
	}
}

// Logged is one loggable entry: content-addressed by hash, optionally
// assigned a sequence number once incorporated, and serializable both for
// storage and for Merkle leaf hashing.
type Logged interface {
	// Hash returns the entry's content hash, the key duplicates are
	// detected by.
	Hash() [sha256.Size]byte
	// SequenceNumber returns the assigned sequence number, or ok=false when
	// the entry has not been sequenced yet.
	SequenceNumber() (seq int64, ok bool)
	// SetSequenceNumber assigns the entry's position in the log.
	SetSequenceNumber(seq int64)
	// Timestamp returns the entry's submission time in milliseconds since
	// the epoch.
	Timestamp() uint64
	// SerializeForDatabase encodes the entry for persistence.
	SerializeForDatabase() ([]byte, error)
	// SerializeForLeaf encodes the entry as the Merkle tree leaf input.
	SerializeForLeaf() ([]byte, error)
}

// TreeHeadObserver is notified whenever the store records a new latest tree
// head. Observers are registered by identity: the same observer value must
// be passed to the matching remove call.
type TreeHeadObserver interface {
	TreeHeadUpdated(th TreeHead)
}

// ReadOnlyDatabase is the query surface of the log's append-only store.
type ReadOnlyDatabase interface {
	// LookupByHash returns the entry with the given content hash.
	LookupByHash(hash [sha256.Size]byte) (Logged, error)
	// LookupByIndex returns the entry assigned the given sequence number.
	LookupByIndex(seq int64) (Logged, error)
	// LatestTreeHead returns the most recently recorded tree head.
	LatestTreeHead() (TreeHead, error)
	// TreeSize returns the number of sequenced entries.
	TreeSize() (int64, error)
	// Scan calls fn for each sequenced entry starting at from, in sequence
	// order, until fn returns false or a gap is reached.
	Scan(from int64, fn func(Logged) bool) error
	// AddTreeHeadObserver registers an observer for tree head updates. If a
	// tree head already exists, the observer is notified with it
	// immediately.
	AddTreeHeadObserver(obs TreeHeadObserver) error
	// RemoveTreeHeadObserver deregisters a previously added observer. Adds
	// and removes must be symmetric.
	RemoveTreeHeadObserver(obs TreeHeadObserver) error
}

// Database extends the read surface with sequenced writes. Implementations
// must reject duplicate content hashes and sequence collisions rather than
// overwrite.
type Database interface {
	ReadOnlyDatabase

	// CreateSequencedEntry stores an entry that already carries its sequence
	// number.
	CreateSequencedEntry(entry Logged) WriteResult
	// WriteTreeHead records a new tree head and notifies observers when it
	// becomes the latest.
	WriteTreeHead(th TreeHead) WriteResult
	// Close tears the store down. It fails with [ErrObserversRemain] if any
	// tree head observer is still registered.
	Close() error
}
