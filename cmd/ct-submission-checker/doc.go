// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// ct-submission-checker is a command-line tool for validating X.509
// certificate chains and precertificate chains against a set of trust
// anchors, the way a Certificate Transparency log checks a submission.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/ct-submission-checker/cmd/ct-submission-checker@latest
//
// # Usage
//
//	ct-submission-checker verify CHAIN_FILE --roots ROOTS_FILE [FLAGS]
//	ct-submission-checker inspect CHAIN_FILE [FLAGS]
//	ct-submission-checker roots BUNDLE [BUNDLE...]
//
// # Flags (verify)
//
//	-r, --roots    PEM bundle of trusted root certificates [required]
//	-p, --precert  Treat the submission as a precertificate chain
//	-t, --tbs-out  Write the reconstructed TBSCertificate to a file
//	-j, --json     Emit the verdict as JSON
//
// # Examples
//
// Validate an ordinary chain:
//
//	ct-submission-checker verify chain.pem --roots roots.pem
//
// Validate a precertificate chain and keep the reconstructed TBS:
//
//	ct-submission-checker verify prechain.pem --roots roots.pem \
//	  --precert --tbs-out precert.tbs
//
// Render a submitted chain as a markdown table:
//
//	ct-submission-checker inspect chain.pem
package main
