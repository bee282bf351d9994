// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/logstore"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/submission"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	x509chain "github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/chain"
	"github.com/mark3labs/mcp-go/mcp"
)

// decodeInput resolves a tool's certificate input, which may be a file
// path, base64-encoded data, or inline PEM text.
func decodeInput(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("mcpserver: empty certificate input")
	}

	// A readable path wins; tools routinely hand over filenames.
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}

	// Inline PEM text is passed through untouched.
	if strings.Contains(input, "-----BEGIN") {
		return []byte(input), nil
	}

	if data, err := base64.StdEncoding.DecodeString(input); err == nil {
		return data, nil
	}

	return nil, errors.New("mcpserver: input is not a readable file, PEM text, or base64 data")
}

// chainCheckResult is the JSON payload returned by the chain checking tools.
type chainCheckResult struct {
	Verdict        string `json:"verdict"`
	Category       string `json:"category,omitempty"`
	ChainLength    int    `json:"chainLength,omitempty"`
	Submitted      bool   `json:"submitted,omitempty"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	SequenceNumber int64  `json:"sequenceNumber,omitempty"`
	Timestamp      uint64 `json:"timestamp,omitempty"`
	EntryHash      string `json:"entryHash,omitempty"`
	IssuerKeyHash  string `json:"issuerKeyHash,omitempty"`
	TBS            string `json:"tbs,omitempty"`
}

// toolResultJSON marshals a result payload into an MCP text result.
func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleCheckCertChain validates an ordinary certificate chain submission.
// With submit enabled the accepted chain is recorded in the log store;
// otherwise only the verdict is reported.
func handleCheckCertChain(request mcp.CallToolRequest, coord *submission.Coordinator, chk *checker.CertChecker, config *Config) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("chain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	submit := request.GetBool("submit", config.Defaults.Submit)

	data, err := decodeInput(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if submit {
		res, _ := coord.AddChain(data)
		return toolResultJSON(submissionPayload(res, false))
	}

	ch, err := x509chain.NewFromBytes(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode chain: %v", err)), nil
	}
	if max := config.Defaults.MaxChainLength; max > 0 && ch.Length() > max {
		return mcp.NewToolResultError(fmt.Sprintf("chain length %d exceeds configured maximum %d", ch.Length(), max)), nil
	}

	verdict := chk.CheckCertChain(ch)
	return toolResultJSON(verdictPayload(verdict, ch.Length()))
}

// handleCheckPreCertChain validates a precertificate chain submission and
// reports the reconstructed to-be-signed body and issuer key hash.
func handleCheckPreCertChain(request mcp.CallToolRequest, coord *submission.Coordinator, chk *checker.CertChecker, config *Config) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("chain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	submit := request.GetBool("submit", config.Defaults.Submit)
	includeTBS := request.GetBool("include_tbs", false)

	data, err := decodeInput(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if submit {
		res, _ := coord.AddPreChain(data)
		payload := submissionPayload(res, true)
		if includeTBS && len(res.TBS) > 0 {
			payload.TBS = base64.StdEncoding.EncodeToString(res.TBS)
		}
		return toolResultJSON(payload)
	}

	ch, err := x509chain.NewPreCertChainFromBytes(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode precert chain: %v", err)), nil
	}
	if max := config.Defaults.MaxChainLength; max > 0 && ch.Length() > max {
		return mcp.NewToolResultError(fmt.Sprintf("chain length %d exceeds configured maximum %d", ch.Length(), max)), nil
	}

	verdict, keyHash, tbs := chk.CheckPreCertChain(ch)
	payload := verdictPayload(verdict, ch.Length())
	if verdict == checker.OK {
		payload.IssuerKeyHash = hex.EncodeToString(keyHash[:])
		if includeTBS {
			payload.TBS = base64.StdEncoding.EncodeToString(tbs)
		}
	}
	return toolResultJSON(payload)
}

// verdictPayload builds the result payload for a check-only call.
func verdictPayload(verdict checker.Verdict, length int) chainCheckResult {
	payload := chainCheckResult{
		Verdict:     verdict.String(),
		ChainLength: length,
	}
	if category := verdict.Category(); category != nil {
		payload.Category = category.Error()
	}
	return payload
}

// submissionPayload builds the result payload for a submitting call.
func submissionPayload(res *submission.Result, precert bool) chainCheckResult {
	payload := chainCheckResult{
		Verdict: res.Verdict.String(),
	}
	if category := res.Verdict.Category(); category != nil {
		payload.Category = category.Error()
		return payload
	}

	payload.Submitted = true
	payload.Duplicate = res.Duplicate
	payload.SequenceNumber = res.SequenceNumber
	payload.Timestamp = res.Timestamp
	payload.EntryHash = hex.EncodeToString(res.Hash[:])
	if precert {
		payload.IssuerKeyHash = hex.EncodeToString(res.IssuerKeyHash[:])
	}
	return payload
}

// handleLoadTrustedRoots adds trust anchors from a PEM bundle to the shared
// trust store. A malformed bundle leaves the store unchanged.
func handleLoadTrustedRoots(request mcp.CallToolRequest, chk *checker.CertChecker) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("roots")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := decodeInput(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	added, err := chk.LoadTrustedCertificatesFromBytes(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bundle rejected, trust store unchanged (%d anchors): %v",
			chk.NumTrustedCertificates(), err)), nil
	}

	return toolResultJSON(map[string]any{
		"added": added,
		"total": chk.NumTrustedCertificates(),
	})
}

// handleGetTrustedRoots reports the trust store contents.
func handleGetTrustedRoots(request mcp.CallToolRequest, chk *checker.CertChecker) (*mcp.CallToolResult, error) {
	payload := map[string]any{
		"total": chk.NumTrustedCertificates(),
	}
	if request.GetBool("pem", false) {
		payload["pem"] = string(chk.TrustedRoots())
	}
	return toolResultJSON(payload)
}

// handleGetTreeHead reports the latest tree head and current tree size of
// the in-memory log store.
func handleGetTreeHead(request mcp.CallToolRequest, db logstore.Database) (*mcp.CallToolResult, error) {
	size, err := db.TreeSize()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read tree size: %v", err)), nil
	}

	payload := map[string]any{
		"treeSize": size,
	}

	head, err := db.LatestTreeHead()
	switch {
	case err == nil:
		payload["treeHead"] = map[string]any{
			"timestamp": head.Timestamp,
			"treeSize":  head.TreeSize,
			"rootHash":  hex.EncodeToString(head.RootHash[:]),
			"signature": base64.StdEncoding.EncodeToString(head.Signature),
		}
	case errors.Is(err, logstore.ErrNoTreeHead):
		// No head published yet; the size alone is still useful.
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to read tree head: %v", err)), nil
	}

	return toolResultJSON(payload)
}
