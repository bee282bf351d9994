// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
)

var (
	// ErrTBSParse indicates the TBSCertificate structure could not be decoded.
	ErrTBSParse = errors.New("x509chain: failed to parse TBSCertificate")

	// ErrTBSTrailingData indicates extra bytes after the TBSCertificate.
	ErrTBSTrailingData = errors.New("x509chain: trailing data after TBSCertificate")

	// ErrExtensionNotFound indicates a requested extension is absent from the TBS.
	ErrExtensionNotFound = errors.New("x509chain: extension not found in TBSCertificate")

	// ErrTBSSerialize indicates the reconstructed TBSCertificate could not be
	// re-encoded to DER.
	ErrTBSSerialize = errors.New("x509chain: failed to serialize TBSCertificate")
)

// oidExtensionAuthorityKeyID is the X.509 Authority Key Identifier (2.5.29.35).
var oidExtensionAuthorityKeyID = asn1.ObjectIdentifier{2, 5, 29, 35}

// tbsCertificate mirrors the TBSCertificate ASN.1 structure with every field
// the reconstruction does not touch held as an opaque [asn1.RawValue]. Fields
// kept raw round-trip byte for byte through Unmarshal/Marshal, so the
// reconstructed encoding differs from the original only where it must: the
// removed poison extension and, when applicable, the substituted issuer.
type tbsCertificate struct {
	Version            int `asn1:"optional,explicit,default:0,tag:0"`
	SerialNumber       asn1.RawValue
	SignatureAlgorithm asn1.RawValue
	Issuer             asn1.RawValue
	Validity           asn1.RawValue
	Subject            asn1.RawValue
	PublicKey          asn1.RawValue
	UniqueID           asn1.BitString   `asn1:"optional,tag:1"`
	SubjectUniqueID    asn1.BitString   `asn1:"optional,tag:2"`
	Extensions         []pkix.Extension `asn1:"optional,explicit,tag:3,omitempty"`
}

// TBS is a mutable to-be-signed certificate body, parsed from a
// precertificate so the poison extension can be removed and the issuer
// substituted before the body is re-serialized for leaf hashing
// ([RFC 6962] s3.2).
//
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
type TBS struct {
	tbs tbsCertificate
}

// ParseTBS extracts the TBSCertificate from a parsed certificate.
func ParseTBS(cert *x509.Certificate) (*TBS, error) {
	if cert == nil || len(cert.RawTBSCertificate) == 0 {
		return nil, ErrTBSParse
	}

	t := &TBS{}
	rest, err := asn1.Unmarshal(cert.RawTBSCertificate, &t.tbs)
	if err != nil {
		return nil, ErrTBSParse
	}
	if len(rest) != 0 {
		return nil, ErrTBSTrailingData
	}
	return t, nil
}

// DeleteExtension removes every extension with the given OID from the TBS.
// It reports [ErrExtensionNotFound] when no such extension exists, so a
// caller deleting the poison extension learns it was operating on a
// certificate that never was a precertificate.
func (t *TBS) DeleteExtension(oid asn1.ObjectIdentifier) error {
	kept := t.tbs.Extensions[:0]
	removed := 0

	for _, ext := range t.tbs.Extensions {
		if ext.Id.Equal(oid) {
			removed++
			continue
		}
		kept = append(kept, ext)
	}

	if removed == 0 {
		return ErrExtensionNotFound
	}
	t.tbs.Extensions = kept
	return nil
}

// CopyIssuerFrom overwrites the TBS issuer with the issuer of the given
// certificate. When a Precertificate Signing Certificate issued the
// precertificate, that intermediate's own issuer is the CA that will sign
// the final certificate, so copying its issuer name (and, when both carry
// one, its Authority Key Identifier) yields the TBS the final certificate
// will have.
func (t *TBS) CopyIssuerFrom(cert *x509.Certificate) error {
	if cert == nil || len(cert.RawIssuer) == 0 {
		return ErrCertMissing
	}

	raw := make([]byte, len(cert.RawIssuer))
	copy(raw, cert.RawIssuer)
	t.tbs.Issuer = asn1.RawValue{FullBytes: raw}

	var issuerAKID []byte
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidExtensionAuthorityKeyID) {
			issuerAKID = ext.Value
			break
		}
	}
	if issuerAKID == nil {
		return nil
	}

	for i, ext := range t.tbs.Extensions {
		if ext.Id.Equal(oidExtensionAuthorityKeyID) {
			value := make([]byte, len(issuerAKID))
			copy(value, issuerAKID)
			t.tbs.Extensions[i].Value = value
			break
		}
	}
	return nil
}

// DerEncoding serializes the (possibly modified) TBSCertificate back to DER.
func (t *TBS) DerEncoding() ([]byte, error) {
	der, err := asn1.Marshal(t.tbs)
	if err != nil {
		return nil, ErrTBSSerialize
	}
	return der, nil
}
