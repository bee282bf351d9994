// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the CT submission
// checker. It implements a Cobra-based CLI that validates ordinary and
// precertificate chains against a trust-anchor bundle, inspects submitted
// chains in table, tree, and JSON formats, and exercises trust store
// loading. The package handles file I/O and integrates with the logger
// package for output and error reporting.
package cli
