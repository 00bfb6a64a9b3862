// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed by the server.
const (
	StateCountsTool = "get_state_counts"
	RiskCountsTool  = "get_risk_counts"
	RegionRiskTool  = "get_region_risk"
	CountryRiskTool = "get_country_risk"
)

// NewMCPServer initializes and configures the Riskboard MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Riskboard Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	inputPath := mcp.WithString("input_path", mcp.Description("Path to the accounts JSON export (defaults to the configured input)."))

	// --- 1. Tool: get_state_counts ---
	s.AddTool(mcp.NewTool(StateCountsTool,
		mcp.WithDescription("Daily device counts by approval state (unapproved, approved)."),
		inputPath,
	), h.handleGetStateCounts)

	// --- 2. Tool: get_risk_counts ---
	s.AddTool(mcp.NewTool(RiskCountsTool,
		mcp.WithDescription("Daily device counts by account risk category (safe, suspicious, malicious)."),
		inputPath,
	), h.handleGetRiskCounts)

	// --- 3. Tool: get_region_risk ---
	s.AddTool(mcp.NewTool(RegionRiskTool,
		mcp.WithDescription("Mean account risk per region of the focus country, highest first."),
		inputPath,
		mcp.WithNumber("min_support", mcp.Description("Groups need strictly more device rows than this (defaults to the configured value).")),
	), h.handleGetRegionRisk)

	// --- 4. Tool: get_country_risk ---
	s.AddTool(mcp.NewTool(CountryRiskTool,
		mcp.WithDescription("Mean account risk per country, highest first."),
		inputPath,
		mcp.WithNumber("min_support", mcp.Description("Groups need strictly more device rows than this (defaults to the configured value).")),
	), h.handleGetCountryRisk)

	return s
}

// StartMCPServer starts the Riskboard MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, version string) error {
	s := NewMCPServer(baseCfg, version)
	return server.ServeStdio(s)
}
