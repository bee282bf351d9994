// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package submission coordinates chain validation with log storage: it is
// the caller side of the checker, turning raw submitted bytes into verdicts
// and, for accepted submissions, sequenced log entries. Duplicate
// submissions return the already-logged entry instead of a new one.
package submission

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/logstore"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	x509chain "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
)

// Result describes the outcome of a submission.
type Result struct {
	// Verdict is the checker's judgement of the chain.
	Verdict checker.Verdict
	// Hash is the accepted entry's content hash. Zero unless Verdict is OK.
	Hash [sha256.Size]byte
	// SequenceNumber is the entry's position in the log.
	SequenceNumber int64
	// Timestamp is the entry's acceptance time in milliseconds since the
	// epoch. For duplicates it is the original entry's timestamp.
	Timestamp uint64
	// Duplicate reports that a byte-equivalent submission was already
	// logged; the returned fields describe the existing entry.
	Duplicate bool
	// IssuerKeyHash is the final issuer's SPKI digest, precert entries only.
	IssuerKeyHash [sha256.Size]byte
	// TBS is the reconstructed to-be-signed body, precert entries only.
	TBS []byte
}

// maxSequenceRetries bounds how often a submission re-reads the tree size
// after losing a sequence slot to a concurrent submission.
const maxSequenceRetries = 8

// Coordinator accepts raw submissions, validates them through a
// [checker.CertChecker], and records accepted entries in a
// [logstore.Database].
type Coordinator struct {
	checker *checker.CertChecker
	db      logstore.Database
	log     logger.Logger

	// now is the acceptance clock, replaceable in tests.
	now func() time.Time
}

// New creates a Coordinator over the given checker and store.
func New(chk *checker.CertChecker, db logstore.Database, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewCLILogger()
	}
	return &Coordinator{
		checker: chk,
		db:      db,
		log:     log,
		now:     time.Now,
	}
}

// AddChain validates an ordinary certificate chain submission and, when it
// is accepted, stores an entry for its leaf certificate.
//
// A non-OK verdict is returned in the Result together with the verdict's
// category error, so callers can errors.Is the failure class.
func (c *Coordinator) AddChain(data []byte) (*Result, error) {
	ch, err := x509chain.NewFromBytes(data)
	if err != nil {
		return &Result{Verdict: checker.InvalidCertificateChain},
			fmt.Errorf("submission: undecodable chain (%v): %w", err, checker.ErrInvalidInput)
	}

	verdict := c.checker.CheckCertChain(ch)
	if verdict != checker.OK {
		return &Result{Verdict: verdict}, verdict.Err()
	}

	entry, err := logstore.NewX509Entry(ch.LeafCert().Raw, uint64(c.now().UnixMilli()))
	if err != nil {
		return &Result{Verdict: checker.InternalError},
			fmt.Errorf("submission: failed to build entry (%v): %w", err, checker.ErrInternal)
	}

	return c.store(entry, nil)
}

// AddPreChain validates a precertificate chain submission and, when it is
// accepted, stores an entry for the reconstructed to-be-signed body and
// issuer key hash.
func (c *Coordinator) AddPreChain(data []byte) (*Result, error) {
	ch, err := x509chain.NewPreCertChainFromBytes(data)
	if err != nil {
		return &Result{Verdict: checker.InvalidCertificateChain},
			fmt.Errorf("submission: undecodable precert chain (%v): %w", err, checker.ErrInvalidInput)
	}

	verdict, keyHash, tbs := c.checker.CheckPreCertChain(ch)
	if verdict != checker.OK {
		return &Result{Verdict: verdict}, verdict.Err()
	}

	entry, err := logstore.NewPrecertEntry(tbs, keyHash, uint64(c.now().UnixMilli()))
	if err != nil {
		return &Result{Verdict: checker.InternalError},
			fmt.Errorf("submission: failed to build precert entry (%v): %w", err, checker.ErrInternal)
	}

	return c.store(entry, tbs)
}

// store sequences and persists an accepted entry, resolving duplicates to
// the entry already logged.
func (c *Coordinator) store(entry *logstore.Entry, tbs []byte) (*Result, error) {
	result := &Result{
		Verdict:       checker.OK,
		Hash:          entry.Hash(),
		Timestamp:     entry.Timestamp(),
		IssuerKeyHash: entry.IssuerKeyHash(),
		TBS:           tbs,
	}

	if existing, err := c.db.LookupByHash(entry.Hash()); err == nil {
		return c.duplicateResult(result, existing), nil
	}

	// Sequence assignment races against concurrent submissions; a sequence
	// collision just means another entry won that slot, so take the next.
	for attempt := 0; ; attempt++ {
		size, err := c.db.TreeSize()
		if err != nil {
			return &Result{Verdict: checker.InternalError},
				fmt.Errorf("submission: failed to read tree size (%v): %w", err, checker.ErrInternal)
		}
		entry.SetSequenceNumber(size)

		wr := c.db.CreateSequencedEntry(entry)
		if wr == logstore.WriteOK {
			break
		}
		if wr == logstore.WriteDuplicateHash {
			existing, err := c.db.LookupByHash(entry.Hash())
			if err != nil {
				return &Result{Verdict: checker.InternalError},
					fmt.Errorf("submission: duplicate entry vanished (%v): %w", err, checker.ErrInternal)
			}
			return c.duplicateResult(result, existing), nil
		}
		if wr == logstore.WriteSequenceInUse && attempt < maxSequenceRetries {
			continue
		}
		c.log.Errorf("failed to store entry: %s", wr)
		return &Result{Verdict: checker.InternalError},
			fmt.Errorf("submission: store rejected entry (%s): %w", wr, checker.ErrInternal)
	}

	result.SequenceNumber, _ = entry.SequenceNumber()
	c.log.Printf("Accepted submission at sequence %d", result.SequenceNumber)
	return result, nil
}

// duplicateResult rewrites a result to describe the entry already logged
// for the same content.
func (c *Coordinator) duplicateResult(result *Result, existing logstore.Logged) *Result {
	result.Duplicate = true
	result.Timestamp = existing.Timestamp()
	if seq, ok := existing.SequenceNumber(); ok {
		result.SequenceNumber = seq
	}
	return result
}
