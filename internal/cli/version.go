package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldops/walkabout/pkg/walkabout"
)

const modulePath = "github.com/fieldops/walkabout"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the walkabout version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "walkabout v%s\nmodule: %s\n", walkabout.Version, modulePath)
			return nil
		},
	}
}
