package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gotcs",
		Short:         "TCS thermal stimulator control and protocol authoring",
		Long:          "gotcs drives a TCS thermal stimulator over a serial link (arm, fire, record temperatures) and generates .protocol.ini step scripts its control console can replay standalone.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newPortsCmd(),
		newGenerateCmd(),
		newStimCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
