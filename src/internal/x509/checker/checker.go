// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package checker

import (
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
)

// CertChecker validates submitted certificate chains against its own set of
// trust anchors, as a Certificate Transparency log does before accepting and
// timestamping a submission.
//
// The trust store maps the DER-encoded subject name to every anchor loaded
// under that name. Subject names are not unique across anchors, so lookups
// always consider every entry under a name, and trust decisions about a
// specific certificate use byte identity, never the name alone.
//
// A single CertChecker serves many concurrent validation calls. Reads take
// the read lock; loading and clearing anchors take the write lock, so a load
// is never observed mid-update. Certificates handed to a chain are clones of
// store entries, never aliases, so in-flight chains survive later store
// mutation or teardown.
type CertChecker struct {
	mu      sync.RWMutex
	trusted map[string][]*x509.Certificate

	codec *x509certs.Certificate
	log   logger.Logger
}

// New creates a CertChecker with an empty trust store.
func New(log logger.Logger) *CertChecker {
	if log == nil {
		log = logger.NewCLILogger()
	}
	return &CertChecker{
		trusted: make(map[string][]*x509.Certificate),
		codec:   x509certs.New(),
		log:     log,
	}
}

// LoadTrustedCertificates loads trust anchors from a PEM bundle file.
//
// It returns the number of new anchors added. The load is all-or-nothing:
// a malformed bundle leaves the store exactly as it was.
func (c *CertChecker) LoadTrustedCertificates(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("checker: failed to open trusted certificate file: %w", err)
	}
	defer file.Close()

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if _, err := buf.ReadFrom(file); err != nil {
		return 0, fmt.Errorf("checker: failed to read trusted certificate file: %w", err)
	}

	return c.LoadTrustedCertificatesFromBytes(buf.Bytes())
}

// LoadTrustedCertificatesFromBytes loads trust anchors from an in-memory
// PEM bundle.
//
// The bundle is decoded as a sequential stream of certificate blocks until a
// clean end of stream; any malformed block aborts the whole load without
// mutating the store. Candidates byte-identical to an existing anchor are
// counted but not re-added. A bundle that yields no certificates at all is
// a failure. Staged anchors are committed atomically under the write lock
// only after the entire bundle has been consumed and validated.
//
// It returns the number of new anchors added.
func (c *CertChecker) LoadTrustedCertificatesFromBytes(data []byte) (int, error) {
	certs, err := c.codec.DecodeBundle(data)
	if err != nil {
		return 0, fmt.Errorf("checker: failed to load trusted certificates: %w", err)
	}
	if len(certs) == 0 {
		return 0, fmt.Errorf("checker: no trusted certificates in bundle: %w", x509certs.ErrInvalidPEMBlock)
	}

	var additions []stagedAnchor
	duplicates := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cert := range certs {
		subject := cert.RawSubject
		if len(subject) == 0 {
			return 0, fmt.Errorf("checker: trusted certificate has no subject: %w", x509certs.ErrParseCertificate)
		}

		if c.containsLocked(cert) || stagedContains(additions, cert) {
			duplicates++
			continue
		}
		additions = append(additions, stagedAnchor{subject: string(subject), cert: cert})
	}

	for _, add := range additions {
		c.trusted[add.subject] = append(c.trusted[add.subject], add.cert)
	}

	c.log.Printf("Loaded %d new trusted certificates (%d duplicates skipped)",
		len(additions), duplicates)
	return len(additions), nil
}

// stagedAnchor is a candidate trust anchor held back until an entire bundle
// has been validated, so loads commit all or nothing.
type stagedAnchor struct {
	subject string
	cert    *x509.Certificate
}

// stagedContains reports whether a byte-identical certificate is already
// staged for insertion in the current load.
func stagedContains(additions []stagedAnchor, cert *x509.Certificate) bool {
	for _, add := range additions {
		if x509certs.IsIdenticalTo(add.cert, cert) {
			return true
		}
	}
	return false
}

// ClearAllTrustedCertificates removes every trust anchor from the store.
// In-flight chains are unaffected since appended anchors are clones.
func (c *CertChecker) ClearAllTrustedCertificates() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trusted = make(map[string][]*x509.Certificate)
	c.log.Println("Cleared all trusted certificates")
}

// NumTrustedCertificates returns the number of anchors currently held.
func (c *CertChecker) NumTrustedCertificates() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, entries := range c.trusted {
		total += len(entries)
	}
	return total
}

// TrustedRoots returns a PEM snapshot of every trust anchor, ordered by
// subject name for stable output. The snapshot shares no memory with the
// store.
func (c *CertChecker) TrustedRoots() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subjects := make([]string, 0, len(c.trusted))
	for subject := range c.trusted {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	var out []byte
	for _, subject := range subjects {
		out = append(out, c.codec.EncodeMultiplePEM(c.trusted[subject])...)
	}
	return out
}

// CheckCertChain validates an ordinary certificate chain submission.
//
// The chain must be loaded and its leaf must not be a precertificate; a
// poisoned leaf on this entry point means the caller should have submitted
// through the precert path. On success the chain has been trimmed,
// structurally validated, and anchored to a trusted root (appending a clone
// of the anchor when the chain did not already end at one).
func (c *CertChecker) CheckCertChain(ch *x509chain.Chain) Verdict {
	if ch == nil || !ch.IsLoaded() {
		return InvalidCertificateChain
	}

	leaf := ch.LeafCert()
	if leaf == nil || len(leaf.Raw) == 0 {
		c.log.Errorf("certificate chain leaf missing or unparsed")
		return InternalError
	}
	if x509certs.HasCriticalExtension(leaf, x509chain.OIDExtensionCTPoison) {
		return PrecertExtensionInCertChain
	}

	return c.CheckIssuerChain(ch)
}

// CheckIssuerChain runs the validation steps shared by the ordinary and
// precertificate paths: trim after the first self-issued certificate,
// validate the issuer/CA structure, verify the signature chain, and resolve
// a trust anchor.
func (c *CertChecker) CheckIssuerChain(ch *x509chain.Chain) Verdict {
	if err := ch.RemoveCertsAfterFirstSelfSigned(); err != nil {
		c.log.Errorf("failed to trim certificate chain: %v", err)
		return InternalError
	}

	validCA, err := ch.IsValidCaIssuerChainMaybeLegacyRoot()
	if err != nil {
		c.log.Errorf("failed to check issuer chain structure: %v", err)
		return InternalError
	}
	if !validCA {
		return InvalidCertificateChain
	}

	switch status := ch.IsValidSignatureChain(); status {
	case x509certs.SignatureValid:
	case x509certs.SignatureUnsupportedAlgorithm:
		return UnsupportedAlgorithmInCertChain
	case x509certs.SignatureInvalid:
		return InvalidCertificateChain
	default:
		c.log.Errorf("signature chain check did not complete: %v", status)
		return InternalError
	}

	return c.GetTrustedCa(ch)
}

// GetTrustedCa resolves the chain's trust anchor. On success the chain
// either already ended at an anchor (byte-identical match, chain untouched)
// or a clone of the matching anchor has been appended.
//
// Candidate anchors are every store entry whose subject equals the last
// certificate's issuer name, tried in store order. The first candidate whose
// signature verifies wins. A candidate reporting an unsupported algorithm
// aborts the scan immediately with [UnsupportedAlgorithmInCertChain]: a
// deliberately disallowed weak algorithm is a hard policy rejection, even
// when other candidates under the same name might have validated.
func (c *CertChecker) GetTrustedCa(ch *x509chain.Chain) Verdict {
	last := ch.LastCert()
	if last == nil || len(last.Raw) == 0 {
		c.log.Errorf("chain has no last certificate to anchor")
		return InternalError
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.trusted) == 0 {
		return RootNotInLocalStore
	}

	// The chain may already end exactly at an anchor.
	if c.containsLocked(last) {
		return OK
	}

	subject, issuer := last.RawSubject, last.RawIssuer
	if len(issuer) == 0 {
		return InvalidCertificateChain
	}
	if string(subject) == string(issuer) {
		// Self-issued but not byte-identical to any anchor: there is no
		// further certificate to look up for it.
		return RootNotInLocalStore
	}

	for _, candidate := range c.trusted[string(issuer)] {
		switch status := x509certs.IsSignedBy(last, candidate); status {
		case x509certs.SignatureValid:
			clone, err := x509certs.Clone(candidate)
			if err != nil {
				c.log.Errorf("failed to clone trust anchor: %v", err)
				return InternalError
			}
			ch.AddCert(clone)
			return OK
		case x509certs.SignatureInvalid:
			continue
		case x509certs.SignatureUnsupportedAlgorithm:
			return UnsupportedAlgorithmInCertChain
		default:
			c.log.Errorf("anchor candidate signature check did not complete: %v", status)
			return InternalError
		}
	}

	return RootNotInLocalStore
}

// IsTrusted reports whether the certificate is, byte for byte, one of the
// loaded trust anchors. It returns the certificate's derived DER subject
// name regardless of the match outcome, so loaders can key their staging on
// it.
func (c *CertChecker) IsTrusted(cert *x509.Certificate) (Verdict, []byte) {
	if cert == nil || len(cert.Raw) == 0 {
		c.log.Errorf("trust query on missing certificate")
		return InternalError, nil
	}

	subject := cert.RawSubject
	if len(subject) == 0 {
		return InvalidCertificateChain, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.containsLocked(cert) {
		return OK, subject
	}
	return RootNotInLocalStore, subject
}

// CheckPreCertChain validates a precertificate chain submission and, on
// success, returns the artifacts the log hashes into the Merkle leaf: the
// SHA-256 of the final issuer's SubjectPublicKeyInfo and the reconstructed
// to-be-signed certificate body with the poison extension removed and, when
// a Precertificate Signing Certificate was used, the issuer rewritten to the
// CA that will sign the final certificate.
func (c *CertChecker) CheckPreCertChain(p *x509chain.PreCertChain) (Verdict, [sha256.Size]byte, []byte) {
	var keyHash [sha256.Size]byte

	if p == nil || !p.IsLoaded() {
		return InvalidCertificateChain, keyHash, nil
	}

	wellFormed, err := p.IsWellFormed()
	if err != nil {
		c.log.Errorf("failed to check precert chain shape: %v", err)
		return InternalError, keyHash, nil
	}
	if !wellFormed {
		return PrecertChainNotWellFormed, keyHash, nil
	}

	if verdict := c.CheckIssuerChain(p.Chain); verdict != OK {
		return verdict, keyHash, nil
	}

	usesPreIssuer, err := p.UsesPrecertSigningCertificate()
	if err != nil {
		c.log.Errorf("failed to inspect precert issuing certificate: %v", err)
		return InternalError, keyHash, nil
	}

	// The key hash names the certificate that will sign the final,
	// non-poisoned certificate: one level above the precert signing
	// certificate when one is in use, the immediate issuer otherwise.
	signerIndex := 1
	if usesPreIssuer {
		signerIndex = 2
	}
	signer := p.CertAt(signerIndex)
	if signer == nil {
		c.log.Errorf("precert chain too short for final issuer at index %d", signerIndex)
		return InternalError, keyHash, nil
	}

	keyHash, err = x509certs.SPKISHA256(signer)
	if err != nil {
		c.log.Errorf("failed to digest final issuer key: %v", err)
		return InternalError, keyHash, nil
	}

	tbs, err := x509chain.ParseTBS(p.PreCert())
	if err != nil {
		c.log.Errorf("failed to parse precert TBSCertificate: %v", err)
		return InternalError, keyHash, nil
	}
	if err := tbs.DeleteExtension(x509chain.OIDExtensionCTPoison); err != nil {
		c.log.Errorf("failed to remove poison extension: %v", err)
		return InternalError, keyHash, nil
	}
	if usesPreIssuer {
		if err := tbs.CopyIssuerFrom(p.PrecertIssuingCert()); err != nil {
			c.log.Errorf("failed to substitute precert issuer: %v", err)
			return InternalError, keyHash, nil
		}
	}

	der, err := tbs.DerEncoding()
	if err != nil {
		c.log.Errorf("failed to serialize reconstructed TBSCertificate: %v", err)
		return InternalError, keyHash, nil
	}

	return OK, keyHash, der
}

// containsLocked reports whether a byte-identical certificate is present in
// the store. Callers must hold at least the read lock.
func (c *CertChecker) containsLocked(cert *x509.Certificate) bool {
	for _, entry := range c.trusted[string(cert.RawSubject)] {
		if x509certs.IsIdenticalTo(entry, cert) {
			return true
		}
	}
	return false
}
