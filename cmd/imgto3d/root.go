package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "imgto3d",
		Short:         "Turn an image into a 3D model through a connector script",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newConnectCmd())
	root.AddCommand(newQuickstartCmd())

	return root
}
