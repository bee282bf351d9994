// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderASCIITree renders the certificate chain as an ASCII tree diagram.
//
// It displays the submitted hierarchy with visual connectors showing the
// relationship between the (pre)certificate leaf, intermediates, and the
// chain end, marking precertificates and precert signing CAs.
//
// Returns:
//   - string: ASCII tree representation of the certificate chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree() string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.certs) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range ch.certs {
		isLast := i == len(ch.certs)-1

		connector := "├── "
		if isLast {
			connector = "└── "
		}

		marker := "✓"
		if x509certs.HasCriticalExtension(cert, OIDExtensionCTPoison) {
			marker = "☠"
		}

		role := ch.certificateRole(i)
		certInfo := fmt.Sprintf("[%s] %s", marker, cert.Subject.CommonName)
		if role != "" {
			certInfo += fmt.Sprintf(" (%s)", role)
		}

		result.WriteString(connector + certInfo + "\n")
	}

	return result.String()
}

// RenderTable renders the certificate chain as a formatted markdown table.
//
// It displays certificate details including role, subject, issuer, validity
// dates, key size, and the precertificate poison marker in a tabular format
// using tablewriter.
//
// Returns:
//   - string: Markdown table representation of the certificate chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable() string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.certs) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	headers := []string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key", "Poison"}
	table.Header(headers)

	var rows [][]string
	for i, cert := range ch.certs {
		poison := "no"
		if x509certs.HasCriticalExtension(cert, OIDExtensionCTPoison) {
			poison = "yes"
		}

		keySize := "unknown"
		if rsaKey, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit RSA", rsaKey.Size()*8)
		} else if ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit ECDSA", ecdsaKey.Curve.Params().BitSize)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ch.certificateRole(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keySize,
			poison,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON converts the certificate chain to structured JSON for
// external tools.
//
// It creates a data structure including certificate details, hierarchical
// relationships, and Certificate Transparency markers suitable for
// visualization tools or programmatic processing.
//
// Returns:
//   - []byte: JSON representation of the certificate chain
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON() ([]byte, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	type CertificateVizData struct {
		Index              int       `json:"index"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
		KeySize            int       `json:"keySize"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
		Poisoned           bool      `json:"poisoned"`
		PrecertSigningCA   bool      `json:"precertSigningCA"`
	}

	type RelationshipData struct {
		FromIndex int    `json:"fromIndex"`
		ToIndex   int    `json:"toIndex"`
		Type      string `json:"type"`
	}

	type VisualizationData struct {
		Timestamp     string               `json:"timestamp"`
		ChainLength   int                  `json:"chainLength"`
		Certificates  []CertificateVizData `json:"certificates"`
		Relationships []RelationshipData   `json:"relationships"`
	}

	data := VisualizationData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ChainLength:   len(ch.certs),
		Certificates:  make([]CertificateVizData, len(ch.certs)),
		Relationships: make([]RelationshipData, 0, len(ch.certs)),
	}

	for i, cert := range ch.certs {
		keySize := 0
		pubKeyAlgo := "unknown"

		switch pubKey := cert.PublicKey.(type) {
		case *rsa.PublicKey:
			keySize = pubKey.Size() * 8
			pubKeyAlgo = "RSA"
		case *ecdsa.PublicKey:
			keySize = pubKey.Curve.Params().BitSize
			pubKeyAlgo = "ECDSA"
		}

		data.Certificates[i] = CertificateVizData{
			Index:              i,
			Role:               ch.certificateRole(i),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: pubKeyAlgo,
			KeySize:            keySize,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			Poisoned:           x509certs.HasCriticalExtension(cert, OIDExtensionCTPoison),
			PrecertSigningCA:   hasCTExtKeyUsage(cert),
		}
	}

	// Each certificate is signed by the next one in the chain
	for i := 0; i+1 < len(ch.certs); i++ {
		data.Relationships = append(data.Relationships, RelationshipData{
			FromIndex: i,
			ToIndex:   i + 1,
			Type:      "signed_by",
		})
	}

	return json.MarshalIndent(data, "", "  ")
}

// certificateRole determines the role of a certificate in the submitted chain.
//
// Callers must hold at least a read lock.
func (ch *Chain) certificateRole(index int) string {
	cert := ch.certs[index]
	total := len(ch.certs)

	switch {
	case index == 0 && x509certs.HasCriticalExtension(cert, OIDExtensionCTPoison):
		return "Precertificate"
	case index == 0 && total == 1:
		return "Self-Contained Certificate"
	case index == 0:
		return "End-Entity (Leaf) Certificate"
	case hasCTExtKeyUsage(cert):
		return "Precertificate Signing CA"
	case index == total-1 && x509certs.IsSelfIssued(cert):
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

// hasCTExtKeyUsage reports whether the certificate carries the Certificate
// Transparency extended key usage marking a precert signing CA.
func hasCTExtKeyUsage(cert *x509.Certificate) bool {
	for _, eku := range cert.UnknownExtKeyUsage {
		if eku.Equal(OIDExtKeyUsageCertificateTransparency) {
			return true
		}
	}
	return false
}
