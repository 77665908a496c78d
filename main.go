package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "viewshell",
		Short:         "Native PDF export host for the viewshell desktop viewer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCommand(), exportCommand(), versionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
