// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logstore defines the append-only storage collaborator of the log:
// content-hash-keyed, sequence-numbered entries, tree head history, and a
// tree-head-change observer registry, with an in-memory implementation.
//
// Entries serialize for Merkle leaf hashing per [RFC 6962] s3.4 using
// cryptobyte, so the content hash of a submission is stable across
// processes.
//
// [RFC 6962]: https://datatracker.ietf.org/doc/html/rfc6962
package logstore
