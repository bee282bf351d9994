// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package checker

import (
	"errors"
	"fmt"
)

// Verdict is the outcome of a chain validation call. Exactly one verdict is
// produced per call, never partially populated, independent of any logging.
type Verdict int

const (
	// OK means the chain was accepted and, where applicable, anchored to a
	// trusted root.
	OK Verdict = iota
	// InvalidCertificateChain means the chain is malformed, incorrectly
	// ordered, or fails structural or signature validation.
	InvalidCertificateChain
	// PrecertExtensionInCertChain means an ordinary-chain submission carried
	// the critical poison extension on its leaf; the caller used the wrong
	// entry point for a precertificate.
	PrecertExtensionInCertChain
	// UnsupportedAlgorithmInCertChain means a signature in the chain uses a
	// disallowed or unimplemented algorithm. This is a policy rejection,
	// distinct from a signature that simply does not verify.
	UnsupportedAlgorithmInCertChain
	// PrecertChainNotWellFormed means a precert-chain submission does not
	// have the structural shape of a precertificate chain.
	PrecertChainNotWellFormed
	// RootNotInLocalStore means the chain may be structurally sound but does
	// not terminate at a trust anchor this installation holds. Recoverable
	// by an operator adding the anchor; not a client fault.
	RootNotInLocalStore
	// InternalError means a primitive-layer malfunction or programming
	// defect, never a statement about the submitted chain.
	InternalError
)

// String returns the canonical uppercase name of the verdict as used in
// logs and operator tooling.
func (v Verdict) String() string {
	switch v {
	case OK:
		return "OK"
	case InvalidCertificateChain:
		return "INVALID_CERTIFICATE_CHAIN"
	case PrecertExtensionInCertChain:
		return "PRECERT_EXTENSION_IN_CERT_CHAIN"
	case UnsupportedAlgorithmInCertChain:
		return "UNSUPPORTED_ALGORITHM_IN_CERT_CHAIN"
	case PrecertChainNotWellFormed:
		return "PRECERT_CHAIN_NOT_WELL_FORMED"
	case RootNotInLocalStore:
		return "ROOT_NOT_IN_LOCAL_STORE"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN_VERDICT(%d)", int(v))
	}
}

// Error categories the verdicts map onto. Callers depend on telling client
// faults, missing-anchor preconditions, and internal faults apart, so the
// three are distinct sentinels usable with [errors.Is].
var (
	// ErrInvalidInput covers chains rejected as malformed, non-conformant,
	// or policy-rejected. Reported to the submitter, never retried.
	ErrInvalidInput = errors.New("checker: invalid submission")

	// ErrPreconditionUnmet covers chains whose root this installation does
	// not trust. Reported distinctly so operators can add the anchor.
	ErrPreconditionUnmet = errors.New("checker: root not trusted by local store")

	// ErrInternal covers primitive-layer malfunction or programming defects.
	// Logged at error severity and surfaced as a generic internal failure.
	ErrInternal = errors.New("checker: internal error")
)

// Category returns the sentinel error category for the verdict, or nil for
// [OK].
func (v Verdict) Category() error {
	switch v {
	case OK:
		return nil
	case RootNotInLocalStore:
		return ErrPreconditionUnmet
	case InternalError:
		return ErrInternal
	default:
		return ErrInvalidInput
	}
}

// Err returns an error wrapping the verdict's category, carrying the
// verdict name in its message, or nil for [OK]. errors.Is against the
// category sentinels distinguishes the three classes.
func (v Verdict) Err() error {
	category := v.Category()
	if category == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", v, category)
}
