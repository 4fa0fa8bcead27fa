package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forptiter/study-assistant/cmd/client"
)

func main() {
	root := &cobra.Command{
		Use:          "study",
		Short:        "study assistant client",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(client.NewCommands()...)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
