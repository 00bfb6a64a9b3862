package cmd

import (
	"github.com/huangsam/riskboard/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [input.json]",
	Short: "Start the riskboard MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query the dashboard datasets.

Each tool takes an input_path, so the positional input is only a default.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdio carries the protocol, so logs must stay on stderr
		return sharedSetup(rootCtx, cmd, args, setupOptions{stderrOnly: true, inputOptional: true})
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, version)
	},
}
