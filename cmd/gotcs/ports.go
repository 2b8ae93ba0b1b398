package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurostim/gotcs/pkg/tcs"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports on this host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := tcs.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p.Name)
			}
			return nil
		},
	}
}
