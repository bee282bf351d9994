// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/x509"
	"errors"
	"sync"

	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
)

var (
	// ErrChainNotLoaded indicates an operation on an empty or unloaded chain.
	ErrChainNotLoaded = errors.New("x509chain: chain not loaded")

	// ErrCertMissing indicates that a certificate expected at a given chain
	// position is absent or was never fully parsed.
	ErrCertMissing = errors.New("x509chain: certificate missing from chain")
)

// Chain manages an ordered [X.509] certificate sequence as submitted to a
// log: index 0 is the leaf, the last element is the current end of the chain
// (a candidate root or the deepest intermediate supplied).
//
// The chain exclusively owns every certificate it holds. Certificates
// appended by a validator are clones, never aliases into another structure,
// so a chain stays usable after its trust store is mutated or torn down.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	certs []*x509.Certificate
	*x509certs.Certificate
}

// New creates an empty Chain ready to receive certificates.
func New() *Chain {
	return &Chain{Certificate: x509certs.New()}
}

// NewFromCerts creates a Chain that takes ownership of the given
// leaf-first certificate slice.
func NewFromCerts(certs []*x509.Certificate) *Chain {
	ch := New()
	ch.certs = certs
	return ch
}

// NewFromBytes decodes a leaf-first chain from PEM or DER encoded data.
//
// It accepts a single certificate or a concatenation; decoding failures are
// reported via the sentinel errors of the certs package.
func NewFromBytes(data []byte) (*Chain, error) {
	ch := New()

	certs, err := ch.DecodeMultiple(data)
	if err != nil {
		return nil, err
	}

	ch.certs = certs
	return ch, nil
}

// IsLoaded reports whether the chain holds at least one certificate.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) IsLoaded() bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return len(ch.certs) > 0
}

// Length returns the number of certificates in the chain.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Length() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return len(ch.certs)
}

// CertAt returns the certificate at position i (0 = leaf), or nil when the
// position is out of range.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) CertAt(i int) *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if i < 0 || i >= len(ch.certs) {
		return nil
	}
	return ch.certs[i]
}

// LeafCert returns the first certificate of the chain, or nil when empty.
func (ch *Chain) LeafCert() *x509.Certificate { return ch.CertAt(0) }

// LastCert returns the last certificate of the chain, or nil when empty.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) LastCert() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.certs) == 0 {
		return nil
	}
	return ch.certs[len(ch.certs)-1]
}

// AddCert appends a certificate to the end of the chain, taking ownership.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) AddCert(cert *x509.Certificate) {
	if cert == nil {
		return
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.certs = append(ch.certs, cert)
}

// Certs returns a snapshot copy of the chain's certificate slice, leaf
// first. Mutating the returned slice does not affect the chain.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Certs() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	out := make([]*x509.Certificate, len(ch.certs))
	copy(out, ch.certs)
	return out
}

// RemoveCertsAfterFirstSelfSigned trims the chain scanning leaf to root:
// every certificate up to and including the first self-issued one is kept,
// anything beyond it is discarded. Submitters sometimes append extra
// certificates after the root; those never participate in validation.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RemoveCertsAfterFirstSelfSigned() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if len(ch.certs) == 0 {
		return ErrChainNotLoaded
	}

	for i, cert := range ch.certs {
		if cert == nil {
			return ErrCertMissing
		}
		if x509certs.IsSelfIssued(cert) {
			ch.certs = ch.certs[:i+1]
			return nil
		}
	}
	return nil
}

// IsValidCaIssuerChainMaybeLegacyRoot validates the issuer/CA structure of
// the chain: every non-leaf certificate must be a CA authorized to issue the
// certificate before it, by name chaining, basic constraints, and key usage.
//
// The final certificate alone is permitted to omit the CA property. Old
// root certificates predate basic constraints, and trust in the chain end is
// established by anchor matching rather than the CA flag.
//
// The bool result is a definite judgement; a non-nil error means the check
// could not be completed and the caller must treat the chain as
// indeterminate rather than invalid.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) IsValidCaIssuerChainMaybeLegacyRoot() (bool, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.certs) == 0 {
		return false, ErrChainNotLoaded
	}

	for i := 0; i+1 < len(ch.certs); i++ {
		child, parent := ch.certs[i], ch.certs[i+1]
		if child == nil || parent == nil {
			return false, ErrCertMissing
		}

		if !bytes.Equal(child.RawIssuer, parent.RawSubject) {
			return false, nil
		}

		lastCert := i+1 == len(ch.certs)-1
		if lastCert && !parent.BasicConstraintsValid {
			// Maybe a legacy root: no basic constraints at the chain end is
			// tolerated, anchor matching decides trust.
			continue
		}
		if !parent.BasicConstraintsValid || !parent.IsCA {
			return false, nil
		}
		if parent.KeyUsage != 0 && parent.KeyUsage&x509.KeyUsageCertSign == 0 {
			return false, nil
		}
	}
	return true, nil
}

// IsValidSignatureChain verifies each certificate's signature under the next
// certificate's key, leaf to root. It returns the status of the first link
// that is not definitely valid, so a disallowed weak algorithm anywhere in
// the chain surfaces as [x509certs.SignatureUnsupportedAlgorithm] rather
// than generic invalidity.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) IsValidSignatureChain() x509certs.SignatureStatus {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.certs) == 0 {
		return x509certs.SignatureCheckFailed
	}

	for i := 0; i+1 < len(ch.certs); i++ {
		if status := x509certs.IsSignedBy(ch.certs[i], ch.certs[i+1]); status != x509certs.SignatureValid {
			return status
		}
	}
	return x509certs.SignatureValid
}
