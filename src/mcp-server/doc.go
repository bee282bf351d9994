// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server surface for Certificate
// Transparency submission checking. It implements the Model Context
// Protocol ([MCP]) server with tools for validating certificate and
// precertificate chains against a trust store, managing trust anchors, and
// inspecting the in-memory log store. The server speaks stdio and keeps a
// single trust store and log database for the lifetime of the process.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
