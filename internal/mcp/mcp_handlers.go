package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/huangsam/riskboard/core"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// prepareConfig applies the request overrides to a copy of the base config.
func (h *toolHandler) prepareConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		cfg.InputPath = abs
	}
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("input_path is required when no input file is configured")
	}
	if _, ok := request.GetArguments()["min_support"]; ok {
		minSupport := request.GetInt("min_support", cfg.MinSupport)
		if minSupport < 0 {
			return nil, fmt.Errorf("min_support must not be negative (received %d)", minSupport)
		}
		cfg.MinSupport = minSupport
	}
	return cfg, nil
}

// runTool runs the pipeline with the request's config and renders one dataset as JSON.
func (h *toolHandler) runTool(ctx context.Context, request mcp.CallToolRequest, pick func(schema.Datasets) any) (*mcp.CallToolResult, error) {
	cfg, err := h.prepareConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.Run(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(pick(result.Datasets), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetStateCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runTool(ctx, request, func(d schema.Datasets) any {
		return schema.NewTimeSeriesChart(schema.StateCountsDataset, d.StateCounts)
	})
}

func (h *toolHandler) handleGetRiskCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runTool(ctx, request, func(d schema.Datasets) any {
		return schema.NewTimeSeriesChart(schema.RiskCountsDataset, d.RiskCounts)
	})
}

func (h *toolHandler) handleGetRegionRisk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runTool(ctx, request, func(d schema.Datasets) any {
		return d.RegionRisk
	})
}

func (h *toolHandler) handleGetCountryRisk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runTool(ctx, request, func(d schema.Datasets) any {
		return d.CountryRisk
	})
}
