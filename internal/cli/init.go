package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldops/walkabout/internal/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize walkabout storage",
		Long:  "Create configuration and data directories, then initialize the session store.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveEngineConfig()
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config: %s", err))
	}

	store := sqlite.NewStore()
	if err := store.Attach(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("attach store: %s", err))
	}
	if err := store.Detach(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("detach store: %s", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "initialized session store in %s\n", cfg.DataDir)
	return nil
}
