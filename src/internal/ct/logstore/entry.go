// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logstore

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/cryptobyte"
)

var (
	// ErrEmptyBody indicates an entry was built without certificate bytes.
	ErrEmptyBody = errors.New("logstore: entry has no certificate body")

	// ErrParseEntry indicates a stored entry could not be decoded.
	ErrParseEntry = errors.New("logstore: failed to parse stored entry")
)

// EntryType distinguishes ordinary certificate entries from precertificate
// entries in leaf serialization ([RFC 6962] s3.1).
//
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
type EntryType uint16

const (
	// X509EntryType is an ordinary certificate entry.
	X509EntryType EntryType = 0
	// PrecertEntryType is a precertificate entry, carrying the issuer key
	// hash and the reconstructed TBSCertificate instead of the certificate.
	PrecertEntryType EntryType = 1
)

// Leaf serialization constants from RFC 6962 s3.4.
const (
	leafVersionV1          = 0
	leafTypeTimestampedEty = 0
)

// Entry is one submission accepted by the log: either a certificate or a
// reconstructed precertificate body, stamped with the acceptance time and
// assigned a sequence number once incorporated into the tree.
//
// Entry implements [Logged]. The content hash covers the entry type, issuer
// key hash, and body but not the acceptance timestamp, so resubmitting the
// same certificate later collides with the original entry in the store.
type Entry struct {
	entryType     EntryType
	timestamp     uint64
	body          []byte
	issuerKeyHash [sha256.Size]byte
	extensions    []byte

	hash      [sha256.Size]byte
	seq       int64
	sequenced bool
}

// NewX509Entry creates an entry for an ordinary certificate submission. The
// body is the leaf certificate's DER encoding; timestamp is milliseconds
// since the epoch.
func NewX509Entry(der []byte, timestamp uint64) (*Entry, error) {
	return newEntry(X509EntryType, der, [sha256.Size]byte{}, timestamp)
}

// NewPrecertEntry creates an entry for a precertificate submission. The body
// is the reconstructed TBSCertificate and issuerKeyHash identifies the key
// that will sign the final certificate.
func NewPrecertEntry(tbs []byte, issuerKeyHash [sha256.Size]byte, timestamp uint64) (*Entry, error) {
	return newEntry(PrecertEntryType, tbs, issuerKeyHash, timestamp)
}

func newEntry(t EntryType, body []byte, issuerKeyHash [sha256.Size]byte, timestamp uint64) (*Entry, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	owned := make([]byte, len(body))
	copy(owned, body)

	e := &Entry{
		entryType:     t,
		timestamp:     timestamp,
		body:          owned,
		issuerKeyHash: issuerKeyHash,
	}

	var b cryptobyte.Builder
	b.AddUint16(uint16(t))
	b.AddBytes(issuerKeyHash[:])
	b.AddBytes(owned)
	content, err := b.Bytes()
	if err != nil {
		return nil, ErrParseEntry
	}
	e.hash = sha256.Sum256(content)
	return e, nil
}

// Type returns the entry's type.
func (e *Entry) Type() EntryType { return e.entryType }

// Body returns the entry's certificate body: the leaf DER for ordinary
// entries, the reconstructed TBSCertificate for precert entries.
func (e *Entry) Body() []byte { return e.body }

// IssuerKeyHash returns the final issuer's SPKI digest. It is the zero
// value for ordinary entries.
func (e *Entry) IssuerKeyHash() [sha256.Size]byte { return e.issuerKeyHash }

// Hash returns the entry's content hash.
func (e *Entry) Hash() [sha256.Size]byte { return e.hash }

// SequenceNumber returns the assigned sequence number, or ok=false when the
// entry has not been sequenced.
func (e *Entry) SequenceNumber() (int64, bool) { return e.seq, e.sequenced }

// SetSequenceNumber assigns the entry's position in the log.
func (e *Entry) SetSequenceNumber(seq int64) {
	e.seq = seq
	e.sequenced = true
}

// Timestamp returns the entry's acceptance time in milliseconds since the
// epoch.
func (e *Entry) Timestamp() uint64 { return e.timestamp }

// SerializeForLeaf encodes the entry as a MerkleTreeLeaf (RFC 6962 s3.4):
// version, leaf type, then a TimestampedEntry of timestamp, entry type, the
// type-specific body, and extensions.
func (e *Entry) SerializeForLeaf() ([]byte, error) {
	if len(e.body) == 0 {
		return nil, ErrEmptyBody
	}

	var b cryptobyte.Builder
	b.AddUint8(leafVersionV1)
	b.AddUint8(leafTypeTimestampedEty)
	b.AddUint64(e.timestamp)
	b.AddUint16(uint16(e.entryType))

	if e.entryType == PrecertEntryType {
		b.AddBytes(e.issuerKeyHash[:])
	}
	b.AddUint24LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(e.body)
	})
	b.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(e.extensions)
	})

	return b.Bytes()
}

// SerializeForDatabase encodes the entry for persistence: type, timestamp,
// issuer key hash, then the length-prefixed body.
func (e *Entry) SerializeForDatabase() ([]byte, error) {
	if len(e.body) == 0 {
		return nil, ErrEmptyBody
	}

	var b cryptobyte.Builder
	b.AddUint16(uint16(e.entryType))
	b.AddUint64(e.timestamp)
	b.AddBytes(e.issuerKeyHash[:])
	b.AddUint24LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(e.body)
	})

	return b.Bytes()
}

// ParseFromDatabase decodes an entry previously encoded with
// [Entry.SerializeForDatabase]. The sequence number is not part of the
// encoding; callers restore it from the store's index.
func ParseFromDatabase(data []byte) (*Entry, error) {
	s := cryptobyte.String(data)

	var entryType uint16
	var timestamp uint64
	var keyHash [sha256.Size]byte
	var body cryptobyte.String

	if !s.ReadUint16(&entryType) ||
		!s.ReadUint64(&timestamp) ||
		!s.CopyBytes(keyHash[:]) ||
		!s.ReadUint24LengthPrefixed(&body) ||
		!s.Empty() {
		return nil, ErrParseEntry
	}

	return newEntry(EntryType(entryType), body, keyHash, timestamp)
}
