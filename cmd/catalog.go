package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/adapters/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the track catalog",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the loaded catalog to a file",
	Long: `Write the loaded catalog to a file. The extension picks the format:
.yaml or .yml write a catalog file, .db or .sqlite import into a SQLite
database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite":
			if err := catalog.ImportSQLite(cmd.Context(), path, app.catalog); err != nil {
				return err
			}
		case ".yaml", ".yml":
			if err := catalog.WriteYAML(path, app.catalog); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported catalog format %q (use .yaml or .db)", filepath.Ext(path))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tracks to %s\n", app.catalog.Len(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogExportCmd)
}
