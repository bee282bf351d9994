// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/logstore"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/submission"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/x509/checker"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var serverName = "CT Submission Checker" // MCP server name

// GetVersion returns the default server version, taken from the version
// package. Binaries built with ldflags may override it via [Run].
func GetVersion() string {
	return version.Version
}

// Run starts the MCP server with Certificate Transparency submission
// checking tools. It loads configuration from the MCP_CT_CONFIG_FILE
// environment variable and serves over stdio until the client disconnects.
//
// The server owns a single trust store and an in-memory log database for
// the lifetime of the process; all tool calls share them, mirroring how a
// log front end keeps one trusted root set across submissions.
func Run(appVersion string) error {
	if appVersion == "" {
		appVersion = GetVersion()
	}

	// Load configuration
	config, err := loadConfig(os.Getenv("MCP_CT_CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Stdio transport owns stdout; anything the checker logs goes to stderr.
	log := logger.NewMCPLogger(os.Stderr, !config.Logging.Verbose)

	chk := checker.New(log)
	if config.Defaults.RootsFile != "" {
		if _, err := chk.LoadTrustedCertificates(config.Defaults.RootsFile); err != nil {
			return fmt.Errorf("failed to load trust anchors from %s: %w", config.Defaults.RootsFile, err)
		}
	}

	db := logstore.NewMemoryDB()
	coord := submission.New(chk, db, log)

	// Create MCP server
	s := server.NewMCPServer(
		serverName,
		appVersion,
		server.WithToolCapabilities(true),
	)

	// Define chain checking tool
	checkCertChainTool := mcp.NewTool("check_cert_chain",
		mcp.WithDescription("Validate an X.509 certificate chain against the loaded trust anchors, as a CT log does before accepting a submission"),
		mcp.WithString("chain",
			mcp.Required(),
			mcp.Description("Chain file path, base64-encoded DER/PEM data, or inline PEM text (leaf first)"),
		),
		mcp.WithBoolean("submit",
			mcp.Description("Record an accepted chain in the in-memory log store and report its sequence number (default: "+fmt.Sprintf("%v", config.Defaults.Submit)+")"),
			mcp.DefaultBool(config.Defaults.Submit),
		),
	)

	// Define precertificate chain checking tool
	checkPreCertChainTool := mcp.NewTool("check_precert_chain",
		mcp.WithDescription("Validate a precertificate chain, reconstruct the TBSCertificate with the CT poison extension removed, and report the issuer key hash"),
		mcp.WithString("chain",
			mcp.Required(),
			mcp.Description("Precertificate chain file path, base64-encoded DER/PEM data, or inline PEM text (precertificate first)"),
		),
		mcp.WithBoolean("submit",
			mcp.Description("Record an accepted precertificate in the in-memory log store and report its sequence number (default: "+fmt.Sprintf("%v", config.Defaults.Submit)+")"),
			mcp.DefaultBool(config.Defaults.Submit),
		),
		mcp.WithBoolean("include_tbs",
			mcp.Description("Include the reconstructed TBSCertificate as base64 in the result (default: false)"),
		),
	)

	// Define trust anchor loading tool
	loadTrustedRootsTool := mcp.NewTool("load_trusted_roots",
		mcp.WithDescription("Load additional trust anchors into the server's trust store from a PEM bundle; a malformed bundle changes nothing"),
		mcp.WithString("roots",
			mcp.Required(),
			mcp.Description("PEM bundle file path, base64-encoded bundle, or inline PEM text"),
		),
	)

	// Define trust anchor listing tool
	getTrustedRootsTool := mcp.NewTool("get_trusted_roots",
		mcp.WithDescription("Return the server's current trust anchors as a PEM bundle"),
		mcp.WithBoolean("pem",
			mcp.Description("Include the full PEM bundle in the result, not just the anchor count (default: false)"),
		),
	)

	// Define tree head inspection tool
	getTreeHeadTool := mcp.NewTool("get_tree_head",
		mcp.WithDescription("Return the latest tree head of the in-memory log store along with the current tree size"),
	)

	// Register tool handlers
	s.AddTool(checkCertChainTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckCertChain(request, coord, chk, config)
	})
	s.AddTool(checkPreCertChainTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckPreCertChain(request, coord, chk, config)
	})
	s.AddTool(loadTrustedRootsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleLoadTrustedRoots(request, chk)
	})
	s.AddTool(getTrustedRootsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTrustedRoots(request, chk)
	})
	s.AddTool(getTreeHeadTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTreeHead(request, db)
	})

	// Start server
	return server.ServeStdio(s)
}
