package commands

import (
	"fmt"
	"io"

	"jobboard-portal/internal/drafts"
	"jobboard-portal/internal/store"

	"github.com/spf13/cobra"
)

func newDraftsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect stored application drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newDraftsScanCommand(e))
	cmd.AddCommand(newDraftsPurgeCommand(e))
	return cmd
}

// openStore opens the configured key-value store. The database is only
// connected when the gorm driver needs it.
func openStore(e *env) (store.Store, error) {
	if err := e.load(); err != nil {
		return nil, err
	}
	if e.cfg.Store.Driver == "gorm" || e.cfg.Store.Driver == "" {
		db, err := e.database()
		if err != nil {
			return nil, err
		}
		return store.Open(e.cfg, db, e.logger)
	}
	return store.Open(e.cfg, nil, e.logger)
}

func closeStore(s store.Store) {
	if c, ok := s.(io.Closer); ok {
		c.Close()
	}
}

func newDraftsScanCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List drafts that can no longer be decoded",
		Long: `List drafts in every session whose stored value is not a valid draft
(malformed JSON, unknown fields, wrong version or a job id mismatch).
The API never deletes these on its own; use "drafts purge" to remove them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer e.close()
			s, err := openStore(e)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open store", err, "Check STORE_DRIVER and its connection settings.")
			}
			defer closeStore(s)

			entries, err := drafts.Scan(cmd.Context(), s)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "scan failed", err, "")
			}
			printCorrupt(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newDraftsPurgeCommand(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete drafts that can no longer be decoded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer e.close()
			out := cmd.OutOrStdout()

			s, err := openStore(e)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open store", err, "")
			}
			defer closeStore(s)

			entries, err := drafts.Scan(cmd.Context(), s)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "scan failed", err, "")
			}
			printCorrupt(out, entries)
			if len(entries) == 0 {
				return nil
			}
			if !yes {
				warning(out, "Dry run, nothing deleted. Re-run with --yes to remove %d drafts", len(entries))
				return nil
			}

			n, err := drafts.Purge(cmd.Context(), s, entries)
			if err != nil {
				return failure(cmd.ErrOrStderr(), fmt.Sprintf("purge stopped after %d drafts", n), err, "")
			}
			success(out, "Removed %d corrupt drafts", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Actually delete the drafts")
	return cmd
}

func printCorrupt(w io.Writer, entries []drafts.CorruptEntry) {
	if len(entries) == 0 {
		success(w, "No corrupt drafts")
		return
	}
	bold.Fprintf(w, "%-60s %-6s %s\n", "KEY", "JOB", "REASON")
	for _, en := range entries {
		fmt.Fprintf(w, "%-60s %-6s %s\n", en.Key, en.JobID, en.Reason)
	}
	fmt.Fprintln(w)
	warning(w, "%d corrupt drafts", len(entries))
}
