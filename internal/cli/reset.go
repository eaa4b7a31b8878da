package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Force bool
	Type  string
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record, or every record of one type",
		Long: `Delete all stored records and discard any staged operations. With --type,
only that entity type is wiped; refs into it cascade, so records of other
types holding a ref to a wiped record go too.

Destructive and unprompted, so --force is required.

Example:
  stratum reset --force
  stratum reset --type Customer --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetStore(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "confirm the wipe")
	cmd.Flags().StringVar(&opts.Type, "type", "", "wipe only this entity type")

	return cmd
}

func resetStore(opts *ResetOptions, cmd *cobra.Command) error {
	if !opts.Force {
		return NewExitError(ExitCommandError, "refusing to wipe without --force")
	}

	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if opts.Type != "" {
		if err := s.DeleteAllOfType(ctx, opts.Type); err != nil {
			return WrapExitError(ExitFailure, "reset failed", err)
		}
	} else {
		if err := s.ResetAll(ctx); err != nil {
			return WrapExitError(ExitFailure, "reset failed", err)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		scope := opts.Type
		if scope == "" {
			scope = "all"
		}
		return out.Success(map[string]any{"reset": scope})
	}
	if opts.Type != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "wiped %s\n", opts.Type)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "wiped all records")
	}
	return nil
}
