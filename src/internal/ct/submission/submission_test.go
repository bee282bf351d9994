// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package submission_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/logstore"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/submission"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
)

// identity is a generated key plus its certificate.
type identity struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

func sign(t *testing.T, tmpl *x509.Certificate, parent *identity) *identity {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate key")

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	require.NoError(t, err, "failed to generate serial number")
	tmpl.SerialNumber = serial
	tmpl.NotBefore = time.Now().Add(-time.Hour)
	tmpl.NotAfter = time.Now().Add(24 * time.Hour)

	signerCert, signerKey := tmpl, key
	if parent != nil {
		signerCert, signerKey = parent.cert, parent.key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, signerCert, &key.PublicKey, signerKey)
	require.NoError(t, err, "failed to create certificate")

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err, "failed to parse certificate")

	return &identity{cert: cert, key: key}
}

func newRoot(t *testing.T, cn string) *identity {
	t.Helper()
	return sign(t, &x509.Certificate{
		Subject:               pkix.Name{CommonName: cn},
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}, nil)
}

func newLeaf(t *testing.T, parent *identity, cn string, extra ...pkix.Extension) *identity {
	t.Helper()
	return sign(t, &x509.Certificate{
		Subject:         pkix.Name{CommonName: cn},
		KeyUsage:        x509.KeyUsageDigitalSignature,
		ExtraExtensions: extra,
	}, parent)
}

func newPrecert(t *testing.T, parent *identity, cn string) *identity {
	t.Helper()
	return newLeaf(t, parent, cn, pkix.Extension{
		Id:       x509chain.OIDExtensionCTPoison,
		Critical: true,
		Value:    []byte{0x05, 0x00},
	})
}

// newCoordinator builds a coordinator over a fresh in-memory store and a
// checker trusting the given anchors.
func newCoordinator(t *testing.T, anchors ...*x509.Certificate) (*submission.Coordinator, *logstore.MemoryDB) {
	t.Helper()

	log := logger.NewMCPLogger(nil, true)
	chk := checker.New(log)
	if len(anchors) > 0 {
		_, err := chk.LoadTrustedCertificatesFromBytes(x509certs.New().EncodeMultiplePEM(anchors))
		require.NoError(t, err, "failed to load anchors")
	}

	db := logstore.NewMemoryDB()
	return submission.New(chk, db, log), db
}

func pemChain(certs ...*x509.Certificate) []byte {
	return x509certs.New().EncodeMultiplePEM(certs)
}

func TestAddChain(t *testing.T) {
	root := newRoot(t, "Submission Root")
	leaf := newLeaf(t, root, "leaf.example.com")

	t.Run("Accepted", func(t *testing.T) {
		coord, db := newCoordinator(t, root.cert)

		res, err := coord.AddChain(pemChain(leaf.cert, root.cert))
		require.NoError(t, err, "AddChain() error")

		assert.Equal(t, checker.OK, res.Verdict, "submission should be accepted")
		assert.False(t, res.Duplicate, "first submission is not a duplicate")
		assert.Equal(t, int64(0), res.SequenceNumber, "first entry takes sequence 0")
		assert.NotZero(t, res.Timestamp, "acceptance timestamp should be set")

		stored, err := db.LookupByHash(res.Hash)
		require.NoError(t, err, "accepted entry should be in the store")
		assert.Equal(t, res.Hash, stored.Hash(), "stored entry hash mismatch")

		size, err := db.TreeSize()
		require.NoError(t, err, "TreeSize() error")
		assert.Equal(t, int64(1), size, "tree should hold one entry")
	})

	t.Run("Sequences Increase", func(t *testing.T) {
		coord, _ := newCoordinator(t, root.cert)
		second := newLeaf(t, root, "second.example.com")

		first, err := coord.AddChain(pemChain(leaf.cert, root.cert))
		require.NoError(t, err, "AddChain() error")

		next, err := coord.AddChain(pemChain(second.cert, root.cert))
		require.NoError(t, err, "AddChain() error")

		assert.Equal(t, int64(0), first.SequenceNumber, "first entry takes sequence 0")
		assert.Equal(t, int64(1), next.SequenceNumber, "second entry takes sequence 1")
	})

	t.Run("Duplicate Resolves To Original", func(t *testing.T) {
		coord, _ := newCoordinator(t, root.cert)

		original, err := coord.AddChain(pemChain(leaf.cert, root.cert))
		require.NoError(t, err, "AddChain() error")

		resubmit, err := coord.AddChain(pemChain(leaf.cert, root.cert))
		require.NoError(t, err, "resubmission must not fail")

		assert.True(t, resubmit.Duplicate, "resubmission should be flagged as duplicate")
		assert.Equal(t, original.SequenceNumber, resubmit.SequenceNumber,
			"duplicate must report the original sequence")
		assert.Equal(t, original.Timestamp, resubmit.Timestamp,
			"duplicate must report the original timestamp")
		assert.Equal(t, original.Hash, resubmit.Hash, "duplicate must report the original hash")
	})

	t.Run("Undecodable Submission", func(t *testing.T) {
		coord, db := newCoordinator(t, root.cert)

		res, err := coord.AddChain([]byte("not a chain"))
		require.Error(t, err, "garbage must be rejected")

		assert.True(t, errors.Is(err, checker.ErrInvalidInput), "garbage is a client fault")
		assert.Equal(t, checker.InvalidCertificateChain, res.Verdict, "unexpected verdict")

		size, err := db.TreeSize()
		require.NoError(t, err, "TreeSize() error")
		assert.Zero(t, size, "rejected submission must not be stored")
	})

	t.Run("Untrusted Root", func(t *testing.T) {
		coord, _ := newCoordinator(t) // empty trust store

		res, err := coord.AddChain(pemChain(leaf.cert, root.cert))
		require.Error(t, err, "chain without a trusted root must be rejected")

		assert.True(t, errors.Is(err, checker.ErrPreconditionUnmet),
			"missing anchor is a precondition failure, not a client fault")
		assert.Equal(t, checker.RootNotInLocalStore, res.Verdict, "unexpected verdict")
	})
}

func TestAddPreChain(t *testing.T) {
	root := newRoot(t, "Submission Root")
	precert := newPrecert(t, root, "pre.example.com")

	t.Run("Accepted", func(t *testing.T) {
		coord, db := newCoordinator(t, root.cert)

		res, err := coord.AddPreChain(pemChain(precert.cert, root.cert))
		require.NoError(t, err, "AddPreChain() error")

		assert.Equal(t, checker.OK, res.Verdict, "submission should be accepted")
		assert.Equal(t, sha256.Sum256(root.cert.RawSubjectPublicKeyInfo), res.IssuerKeyHash,
			"issuer key hash must digest the issuing CA's SPKI")
		assert.NotEmpty(t, res.TBS, "reconstructed TBS should be returned")

		stored, err := db.LookupByHash(res.Hash)
		require.NoError(t, err, "accepted entry should be in the store")
		assert.Equal(t, res.IssuerKeyHash, stored.(*logstore.Entry).IssuerKeyHash(),
			"stored entry must carry the issuer key hash")
	})

	t.Run("Final Cert And Precert Coexist", func(t *testing.T) {
		// An ordinary chain and a precert chain for the same subject produce
		// different bodies, so both occupy the log.
		coord, db := newCoordinator(t, root.cert)
		final := newLeaf(t, root, "pre.example.com")

		_, err := coord.AddPreChain(pemChain(precert.cert, root.cert))
		require.NoError(t, err, "AddPreChain() error")

		_, err = coord.AddChain(pemChain(final.cert, root.cert))
		require.NoError(t, err, "AddChain() error")

		size, err := db.TreeSize()
		require.NoError(t, err, "TreeSize() error")
		assert.Equal(t, int64(2), size, "precert and final certificate are distinct entries")
	})

	t.Run("Ordinary Leaf On Precert Path", func(t *testing.T) {
		coord, _ := newCoordinator(t, root.cert)
		plain := newLeaf(t, root, "plain.example.com")

		res, err := coord.AddPreChain(pemChain(plain.cert, root.cert))
		require.Error(t, err, "non-precert on the precert path must be rejected")

		assert.True(t, errors.Is(err, checker.ErrInvalidInput), "expected client fault category")
		assert.Equal(t, checker.PrecertChainNotWellFormed, res.Verdict, "unexpected verdict")
	})
}
