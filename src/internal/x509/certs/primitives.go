// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"errors"
)

// SignatureStatus is the outcome of checking one certificate's signature
// against a candidate issuer key. Verification can definitely succeed,
// definitely fail, fail because the signature algorithm is disallowed, or
// not complete at all; callers must treat the last state as an internal
// fault rather than coercing it to "invalid".
type SignatureStatus int

const (
	// SignatureValid means the signature verified under the issuer's key.
	SignatureValid SignatureStatus = iota
	// SignatureInvalid means verification completed and the signature does
	// not match.
	SignatureInvalid
	// SignatureUnsupportedAlgorithm means the signature uses an algorithm
	// that is disallowed or not implemented (for example SHA-1 based
	// signatures), so verification was refused as a policy matter.
	SignatureUnsupportedAlgorithm
	// SignatureCheckFailed means verification could not be performed at all,
	// for example because a certificate was nil or not fully parsed.
	SignatureCheckFailed
)

// String returns a short lowercase label for the status, used in logs.
func (s SignatureStatus) String() string {
	switch s {
	case SignatureValid:
		return "valid"
	case SignatureInvalid:
		return "invalid"
	case SignatureUnsupportedAlgorithm:
		return "unsupported-algorithm"
	default:
		return "check-failed"
	}
}

// IsSignedBy checks whether cert's signature verifies under issuer's public
// key. This is a pure cryptographic check: CA flags, key-usage bits, and
// name chaining are deliberately not consulted here, since structural
// validity is judged separately and legacy roots may lack those properties.
func IsSignedBy(cert, issuer *x509.Certificate) SignatureStatus {
	if cert == nil || issuer == nil || len(cert.RawTBSCertificate) == 0 {
		return SignatureCheckFailed
	}
	return ClassifySignatureError(
		issuer.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature))
}

// ClassifySignatureError maps an error from [x509.Certificate.CheckSignature]
// onto a [SignatureStatus]. Algorithm-rejection errors are kept distinct from
// ordinary verification failures because they drive a different verdict.
func ClassifySignatureError(err error) SignatureStatus {
	if err == nil {
		return SignatureValid
	}

	var insecure x509.InsecureAlgorithmError
	if errors.As(err, &insecure) {
		return SignatureUnsupportedAlgorithm
	}
	if errors.Is(err, x509.ErrUnsupportedAlgorithm) {
		return SignatureUnsupportedAlgorithm
	}

	return SignatureInvalid
}

// IsIdenticalTo reports whether two certificates are the same certificate by
// exact DER byte identity. Trust decisions about specific anchors use this,
// never name equality, so two distinct anchors sharing a subject are never
// confused for one another.
func IsIdenticalTo(a, b *x509.Certificate) bool {
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a.Raw, b.Raw)
}

// IsSelfIssued reports whether the certificate's issuer name equals its own
// subject name. Chain trimming and anchor resolution use the name comparison
// rather than a signature check, matching how a candidate root is recognized
// before any trust decision is made.
func IsSelfIssued(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	return bytes.Equal(cert.RawSubject, cert.RawIssuer)
}

// SPKISHA256 returns the SHA-256 digest of the certificate's
// SubjectPublicKeyInfo. For precertificate submissions this digest
// identifies the key that will sign the final certificate.
func SPKISHA256(cert *x509.Certificate) ([sha256.Size]byte, error) {
	var digest [sha256.Size]byte
	if cert == nil || len(cert.RawSubjectPublicKeyInfo) == 0 {
		return digest, ErrParseCertificate
	}
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo), nil
}

// Clone returns an independently owned copy of the certificate, re-parsed
// from a copy of its DER encoding. The clone shares no memory with the
// source, so it stays valid after the source's owner mutates or tears down.
func Clone(cert *x509.Certificate) (*x509.Certificate, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return nil, ErrParseCertificate
	}

	raw := make([]byte, len(cert.Raw))
	copy(raw, cert.Raw)

	clone, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, ErrParseCertificate
	}
	return clone, nil
}

// HasCriticalExtension reports whether the certificate carries an extension
// with the given OID marked critical.
func HasCriticalExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	if cert == nil {
		return false
	}
	for _, ext := range cert.Extensions {
		if ext.Critical && ext.Id.Equal(oid) {
			return true
		}
	}
	return false
}
