package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rtckit",
		Short:         "WebRTC client helpers and the service backing them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		commandServe(),
		commandMunge(),
		commandDirections(),
		commandSanitize(),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
