// Package cli implements the walkabout command-line interface.
// See docs/ARCHITECTURE.md § CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "walkabout" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "walkabout",
		Short: "Durable check-in/check-out workflow sessions",
		Long: "Walkabout manages durable workflow sessions for property check-in and\n" +
			"check-out walkthroughs: resumable progress, interaction recording, and\n" +
			"route decisions that survive reloads and interruptions.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .walkabout)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .walkabout-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newResumeCmd())
	root.AddCommand(newRouteCmd())
	root.AddCommand(newCompleteCmd())
	root.AddCommand(newTerminateCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newExportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// exitError prints the message to stderr and returns an error carrying the
// exit code semantics for cobra.
func exitError(cmd *cobra.Command, code int, msg string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", msg)
	return fmt.Errorf("%s", msg)
}
