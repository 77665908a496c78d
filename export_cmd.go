package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"viewshell/bridge"
	"viewshell/pdfexport"
)

func exportCommand() *cobra.Command {
	var target, out, socketPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Ask a running host to export a surface as PDF",
		Example: `  viewshell export --target main --out ~/Documents/notes.pdf
  viewshell export --target devtools:8E1F0C27 --out page.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("socket") {
				cfg.SocketPath = socketPath
			}
			if _, err := setupLogging(cfg.LogLevel, ""); err != nil {
				return err
			}

			// The host may run in another working directory.
			dest, err := filepath.Abs(out)
			if err != nil {
				return err
			}

			client, err := bridge.Dial(cfg.SocketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.ExportPDF(target, dest); err != nil {
				return fmt.Errorf("export failed (%s): %w", pdfexport.KindOf(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "surface name or devtools:<target-id>")
	cmd.Flags().StringVar(&out, "out", "", "destination PDF path")
	cmd.Flags().StringVar(&socketPath, "socket", "", "bridge socket path (default under the user config dir)")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and PDF backend",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viewshell %s (pdf backend: %s)\n", version, pdfexport.Backend)
		},
	}
}
