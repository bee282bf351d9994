// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/cli"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	x509certs "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
)

const version = "1.3.3.7-testing"

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

func newLeaf(t *testing.T, parent *identity, cn string) *identity {
	t.Helper()
	return sign(t, &x509.Certificate{
		Subject:  pkix.Name{CommonName: cn},
		KeyUsage: x509.KeyUsageDigitalSignature,
	}, parent)
}

// writePEM writes certs as a PEM bundle under dir and returns the path.
func writePEM(t *testing.T, dir, name string, certs ...*x509.Certificate) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, x509certs.New().EncodeMultiplePEM(certs), 0644),
		"failed to write PEM bundle")
	return path
}

// run executes the CLI with the given argv tail, capturing log output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	origArgs := os.Args
	os.Args = append([]string{"ct-submission-checker"}, args...)
	t.Cleanup(func() { os.Args = origArgs })

	var buf bytes.Buffer
	log := logger.NewCLILogger()
	log.SetOutput(&buf)

	err := cli.Execute(version, log)
	return buf.String(), err
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRoot(t, "CLI Root")
	leaf := newLeaf(t, root, "cli.example.com")

	rootsFile := writePEM(t, dir, "roots.pem", root.cert)
	chainFile := writePEM(t, dir, "chain.pem", leaf.cert, root.cert)

	t.Run("Accepted Chain", func(t *testing.T) {
		output, err := run(t, "verify", chainFile, "--roots", rootsFile)
		require.NoError(t, err, "valid chain should verify")

		assert.Contains(t, output, "OK", "verdict should be printed")
	})

	t.Run("Untrusted Root Exits Non-Zero", func(t *testing.T) {
		other := newRoot(t, "Unrelated Root")
		otherRoots := writePEM(t, dir, "other-roots.pem", other.cert)

		output, err := run(t, "verify", chainFile, "--roots", otherRoots)
		require.Error(t, err, "chain without a trusted root must fail")

		assert.True(t, errors.Is(err, checker.ErrPreconditionUnmet), "expected precondition category")
		assert.Contains(t, output, "ROOT_NOT_IN_LOCAL_STORE", "verdict should be printed")
	})

	t.Run("Missing Roots Flag", func(t *testing.T) {
		_, err := run(t, "verify", chainFile)
		assert.Error(t, err, "verify must require --roots")
	})

	t.Run("Missing Chain File", func(t *testing.T) {
		_, err := run(t, "verify", filepath.Join(dir, "nonexistent.pem"), "--roots", rootsFile)
		assert.Error(t, err, "unreadable chain file must fail")
	})

	t.Run("JSON Output", func(t *testing.T) {
		output, err := run(t, "verify", chainFile, "--roots", rootsFile, "--json")
		require.NoError(t, err, "valid chain should verify")

		assert.Contains(t, output, `"verdict": "OK"`, "JSON report should carry the verdict")
		assert.Contains(t, output, `"chainLength": 2`, "JSON report should carry the chain length")
	})
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRoot(t, "Inspect Root")
	leaf := newLeaf(t, root, "inspect.example.com")
	chainFile := writePEM(t, dir, "chain.pem", leaf.cert, root.cert)

	t.Run("Table", func(t *testing.T) {
		output, err := run(t, "inspect", chainFile)
		require.NoError(t, err, "inspect should succeed")

		assert.Contains(t, output, "inspect.example.com", "table should list the leaf")
		assert.Contains(t, output, "Inspect Root", "table should list the root")
	})

	t.Run("JSON", func(t *testing.T) {
		output, err := run(t, "inspect", chainFile, "--json")
		require.NoError(t, err, "inspect should succeed")

		assert.Contains(t, output, `"subject"`, "JSON output should describe certificates")
	})

	t.Run("Undecodable Input", func(t *testing.T) {
		garbage := filepath.Join(dir, "garbage.pem")
		require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0644), "write failed")

		_, err := run(t, "inspect", garbage)
		assert.Error(t, err, "garbage input must fail")
	})
}

func TestRootsCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRoot(t, "Bundle Root")
	bundle := writePEM(t, dir, "roots.pem", root.cert)

	t.Run("Valid Bundle", func(t *testing.T) {
		output, err := run(t, "roots", bundle)
		require.NoError(t, err, "valid bundle should load")

		assert.Contains(t, output, "1 new trust anchors", "accepted count should be reported")
	})

	t.Run("Malformed Bundle Rejected", func(t *testing.T) {
		corrupt := filepath.Join(dir, "corrupt.pem")
		require.NoError(t, os.WriteFile(corrupt, []byte("-----BEGIN CERTIFICATE-----\nnope\n-----END CERTIFICATE-----\n"), 0644),
			"write failed")

		_, err := run(t, "roots", corrupt)
		assert.Error(t, err, "malformed bundle must be rejected")
	})
}
