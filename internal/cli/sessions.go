// Session commands: create, inspect, list, route, and terminal
// transitions over the session store.
package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldops/walkabout/internal/guard"
	"github.com/fieldops/walkabout/internal/sqlite"
	"github.com/fieldops/walkabout/pkg/types"
)

// withStore attaches the store for one command invocation and detaches on
// return.
func withStore(cmd *cobra.Command, fn func(store *sqlite.Store, cfg types.Config) error) error {
	cfg, err := resolveEngineConfig()
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config: %s", err))
	}
	store := sqlite.NewStore()
	if err := store.Attach(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("attach store: %s", err))
	}
	defer store.Detach()
	return fn(store, cfg)
}

func printRecord(cmd *cobra.Command, record *types.SessionRecord) error {
	if flags.jsonMode {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:   %s\n", record.SessionID)
	fmt.Fprintf(out, "Owner:     %s\n", record.OwnerID)
	fmt.Fprintf(out, "Subject:   %s\n", record.SubjectID)
	fmt.Fprintf(out, "Flow:      %s\n", record.FlowKind)
	fmt.Fprintf(out, "Lifecycle: %s\n", record.Lifecycle)
	fmt.Fprintf(out, "Complete:  %v\n", record.IsWorkflowComplete)
	fmt.Fprintf(out, "Active:    %s\n", record.LastActiveAt.Format("2006-01-02 15:04:05"))
	if record.ReportReference != "" {
		fmt.Fprintf(out, "Report:    %s\n", record.ReportReference)
	}
	return nil
}

func newCreateCmd() *cobra.Command {
	var owner, subject, flow, ownerName, subjectName string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workflow session",
		Long: `Create allocates a fresh session for an owner and subject.

Example:
  walkabout create --owner op-17 --subject prop-204 --flow departure`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				var ownerProfile, subjectProfile *types.Profile
				if ownerName != "" {
					ownerProfile = &types.Profile{Name: ownerName}
				}
				if subjectName != "" {
					subjectProfile = &types.Profile{Name: subjectName}
				}
				record, err := store.Create(owner, subject, flow, ownerProfile, subjectProfile)
				if err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				return printRecord(cmd, record)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identifier (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject identifier (required)")
	cmd.Flags().StringVar(&flow, "flow", types.FlowArrival, "flow kind: arrival or departure")
	cmd.Flags().StringVar(&ownerName, "owner-name", "", "display name cached on the session")
	cmd.Flags().StringVar(&subjectName, "subject-name", "", "display name cached on the session")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				record, err := store.Get(args[0])
				if err != nil {
					return fmt.Errorf("get session: %w", err)
				}
				return printRecord(cmd, record)
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's sessions for resume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				records, err := store.ListByOwner(owner)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				if flags.jsonMode {
					data, err := json.MarshalIndent(records, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SESSION\tSUBJECT\tFLOW\tLIFECYCLE\tLAST ACTIVE")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						r.SessionID, r.SubjectID, r.FlowKind, r.Lifecycle,
						r.LastActiveAt.Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identifier (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newResumeCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Pick the owner's most recent resumable session",
		Long: `Resume finds the owner's most recently active session that has not
reached a terminal state, and prints it with its canonical route.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				records, err := store.ListByOwner(owner)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				for _, r := range records {
					if r.IsTerminal() {
						continue
					}
					if err := printRecord(cmd, r); err != nil {
						return err
					}
					opts := guard.Options{RequireInitialCondition: cfg.RequireInitialCondition}
					if !flags.jsonMode {
						fmt.Fprintf(cmd.OutOrStdout(), "Route:     %s\n", guard.CanonicalRoute(r, opts))
					}
					return nil
				}
				return fmt.Errorf("resume: %w for owner %s", types.ErrNoActiveSession, owner)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identifier (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var candidate string
	cmd := &cobra.Command{
		Use:   "route <session-id>",
		Short: "Print the canonical route for a session",
		Long: `Route prints the screen the session should be on. With --candidate,
it also reports whether that screen is currently permitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				record, err := store.Get(args[0])
				if err != nil {
					return fmt.Errorf("get session: %w", err)
				}
				opts := guard.Options{RequireInitialCondition: cfg.RequireInitialCondition}
				canonical := guard.CanonicalRoute(record, opts)
				fmt.Fprintf(cmd.OutOrStdout(), "canonical: %s\n", canonical)
				if candidate != "" {
					allowed := guard.IsRouteAllowed(types.Route(candidate), record, opts)
					fmt.Fprintf(cmd.OutOrStdout(), "candidate %s allowed: %v\n", candidate, allowed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&candidate, "candidate", "", "candidate route to check")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Mark a session completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				record, err := store.Complete(args[0])
				if err != nil {
					return fmt.Errorf("complete session: %w", err)
				}
				return printRecord(cmd, record)
			})
		},
	}
}

func newTerminateCmd() *cobra.Command {
	var reportRef string
	cmd := &cobra.Command{
		Use:   "terminate <session-id>",
		Short: "Mark a session terminated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				record, err := store.Terminate(args[0], reportRef)
				if err != nil {
					return fmt.Errorf("terminate session: %w", err)
				}
				return printRecord(cmd, record)
			})
		},
	}
	cmd.Flags().StringVar(&reportRef, "report", "", "external report reference to store")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				if err := store.Delete(args[0]); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sqlite.Store, cfg types.Config) error {
				if out == "" {
					data, err := store.Snapshot(args[0])
					if err != nil {
						return fmt.Errorf("snapshot session: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				if err := store.ExportSnapshot(args[0], out); err != nil {
					return fmt.Errorf("export session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported session %s to %s\n", args[0], out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write snapshot to this path instead of stdout")
	return cmd
}
