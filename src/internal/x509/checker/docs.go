// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package checker implements the chain-verification engine of a Certificate
// Transparency log: trust-anchor loading and matching, issuer-chain
// structural validation, signature-chain verification, and the
// precertificate transformation that reconstructs the to-be-signed body used
// for log-entry hashing ([RFC 6962] s3.2).
//
// Every validation call yields exactly one [Verdict]. Verdicts map onto
// three caller-visible error categories: invalid submissions, roots this
// installation does not trust, and internal faults. Indeterminate results
// from the certificate primitives are always surfaced as internal faults,
// never coerced into "invalid", so operator and primitive bugs are not
// misattributed to submitters.
//
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
package checker
