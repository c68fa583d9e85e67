package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func integrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "integrate",
		Short: "Run the host integration hooks once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			r := integratorFor(cfg, out)
			if err := r.Integrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Integration successful (%d subsystems).\n", len(r.Names()))
			return nil
		},
	}
}
