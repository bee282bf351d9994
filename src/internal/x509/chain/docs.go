// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements the [X.509] certificate chain structures a
// Certificate Transparency log validates before accepting a submission.
// It provides capabilities to:
//   - Hold a leaf-first chain with structural mutation (trim, append) and
//     aggregate validity predicates (issuer/CA structure, signature chain).
//   - Recognize precertificate chains: the critical poison extension on the
//     leaf and the dedicated Precertificate Signing Certificate intermediate.
//   - Reconstruct the to-be-signed certificate body of a precertificate
//     (poison removal, issuer substitution) per [RFC 6962] s3.2.
//   - Render chains as tables, trees, or JSON for operator tooling.
//
// Validation here is purely structural and cryptographic: no network access,
// no revocation checking, no clock-based expiry policy.
//
// [X.509]: https://grokipedia.com/page/X.509
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
package x509chain
