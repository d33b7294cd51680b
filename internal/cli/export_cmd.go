package cli

import (
	"fmt"

	"github.com/sadopc/tomato/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var format, dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every work log to a CSV or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			write := export.ToCSV
			switch format {
			case "csv":
			case "json":
				write = export.ToJSON
			default:
				return fmt.Errorf("unknown export format %q (want csv or json)", format)
			}
			if dir == "" {
				dir = app.Config.DataDir()
			}

			path, err := write(app.Store.Logs(cmd.Context()), dir, app.Now())
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to export.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default: the data directory)")

	return cmd
}
