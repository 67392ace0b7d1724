package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server so AI assistants can drive
the session: list tracks, play them and run the sharing timer.
The server communicates over stdio; logs go to the log file only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := startSession(); err != nil {
			return err
		}

		mcp.Version = Version
		server := mcp.NewServer(app.machine, searchCatalog, app.logger)
		if err := server.Start(setupSignalHandler()); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
