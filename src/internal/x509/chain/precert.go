// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"encoding/asn1"

	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
)

// Object identifiers from the Certificate Transparency arc ([RFC 6962] s3.1).
//
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
var (
	// OIDExtensionCTPoison is the critical poison extension (1.3.6.1.4.1.11129.2.4.3)
	// that marks a precertificate. Its presence makes a certificate
	// unusable for anything but log submission.
	OIDExtensionCTPoison = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 3}

	// OIDExtKeyUsageCertificateTransparency (1.3.6.1.4.1.11129.2.4.4) marks a
	// Precertificate Signing Certificate: an intermediate whose extended key
	// usage restricts it to issuing precertificates on a CA's behalf.
	OIDExtKeyUsageCertificateTransparency = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 4}
)

// PreCertChain is a certificate chain whose leaf is expected to be a
// precertificate. It layers precertificate-specific structure checks over
// the ordinary [Chain] operations.
type PreCertChain struct {
	*Chain
}

// NewPreCertChain wraps an existing chain for precertificate validation.
func NewPreCertChain(ch *Chain) *PreCertChain {
	if ch == nil {
		ch = New()
	}
	return &PreCertChain{Chain: ch}
}

// NewPreCertChainFromBytes decodes a leaf-first precertificate chain from
// PEM or DER encoded data.
func NewPreCertChainFromBytes(data []byte) (*PreCertChain, error) {
	ch, err := NewFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &PreCertChain{Chain: ch}, nil
}

// PreCert returns the precertificate itself, the chain's leaf.
func (p *PreCertChain) PreCert() *x509.Certificate { return p.LeafCert() }

// PrecertIssuingCert returns the certificate that directly issued the
// precertificate, or nil when the chain carries none.
func (p *PreCertChain) PrecertIssuingCert() *x509.Certificate { return p.CertAt(1) }

// UsesPrecertSigningCertificate reports whether the precertificate's direct
// issuer is a dedicated Precertificate Signing Certificate, recognized by
// the Certificate Transparency extended key usage on that intermediate.
//
// The bool result is definite; a non-nil error means the issuer certificate
// could not be inspected.
func (p *PreCertChain) UsesPrecertSigningCertificate() (bool, error) {
	issuer := p.PrecertIssuingCert()
	if issuer == nil {
		return false, nil
	}
	if len(issuer.Raw) == 0 {
		return false, ErrCertMissing
	}
	return hasCTExtKeyUsage(issuer), nil
}

// IsWellFormed checks the structural shape specific to precertificate
// submissions: the chain is loaded, the leaf carries the critical poison
// extension, and when a Precertificate Signing Certificate is in use the
// chain is deep enough to contain it.
//
// The bool result is definite; a non-nil error means the shape could not be
// determined and the submission must be treated as an internal fault.
func (p *PreCertChain) IsWellFormed() (bool, error) {
	if !p.IsLoaded() {
		return false, nil
	}

	precert := p.PreCert()
	if precert == nil || len(precert.Raw) == 0 {
		return false, ErrCertMissing
	}
	if !x509certs.HasCriticalExtension(precert, OIDExtensionCTPoison) {
		return false, nil
	}

	usesPreIssuer, err := p.UsesPrecertSigningCertificate()
	if err != nil {
		return false, err
	}
	if usesPreIssuer && p.Length() < 2 {
		return false, nil
	}
	return true, nil
}
