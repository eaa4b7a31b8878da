package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leitmotif-dev/stratum/internal/attr"
	"github.com/leitmotif-dev/stratum/internal/record"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <entity-type> <id>",
		Short: "Fetch one record by id",
		Long: `Fetch the record of the given entity type with the given id.

A missing record is a failure (exit code 1); a store or query error is a
command error (exit code 2).

Example:
  stratum get Customer c1 --model ./model --db shop.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getRecord(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func getRecord(opts *RootOptions, entityType, id string, cmd *cobra.Command) error {
	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.Fetch(cmd.Context(), entityType, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch failed", err)
	}
	if rec == nil {
		return NewExitError(ExitFailure, fmt.Sprintf("no %s with id %q", entityType, id))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(recordJSON(rec))
	}
	fmt.Fprint(cmd.OutOrStdout(), rec.DumpAttributes())
	return nil
}

// recordJSON renders a record as a JSON-friendly map. Values use the
// deterministic text encoding, so every kind survives the trip.
func recordJSON(rec *record.Record) map[string]any {
	attrs := make(map[string]string)
	for _, a := range rec.EntityType().Attributes {
		if v, ok := rec.Get(a.Name); ok {
			attrs[a.Name] = attr.Encode(v)
		}
	}
	return map[string]any{
		"type":  rec.TypeName(),
		"id":    rec.ID(),
		"state": rec.State().String(),
		"attrs": attrs,
	}
}
