package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <entity-type> <id>",
		Short: "Delete one record by id",
		Long: `Delete the record of the given entity type with the given id and commit.

Deleting an id that does not exist succeeds: the record is gone either way.

Example:
  stratum delete Customer c1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRecord(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func deleteRecord(opts *RootOptions, entityType, id string, cmd *cobra.Command) error {
	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	rec, err := s.Fetch(ctx, entityType, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch failed", err)
	}
	if rec == nil {
		// Vacuous success, but say so.
		if opts.Format == "json" {
			return out.Success(map[string]any{"type": entityType, "id": id, "deleted": false})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "no %s with id %q\n", entityType, id)
		return nil
	}

	if err := s.Delete(ctx, rec, true); err != nil {
		return WrapExitError(ExitFailure, "delete failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"type": entityType, "id": id, "deleted": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", entityType, id)
	return nil
}
