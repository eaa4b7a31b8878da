package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [entity-type]",
		Short: "Dump stored records as text",
		Long: `Render the store as deterministic text, entity types in model declaration
order, records ordered by id. With an entity type argument only that type is
dumped. Debug tooling; the dumped records are read into memory.

Example:
  stratum dump --model ./model --db shop.db
  stratum dump Customer`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType := ""
			if len(args) == 1 {
				entityType = args[0]
			}
			return dumpStore(rootOpts, entityType, cmd)
		},
	}
	return cmd
}

func dumpStore(opts *RootOptions, entityType string, cmd *cobra.Command) error {
	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	var text string
	if entityType == "" {
		text, err = s.DumpAll(cmd.Context())
	} else {
		recs, ferr := s.FetchAll(cmd.Context(), entityType)
		if ferr != nil {
			err = ferr
		} else {
			var b strings.Builder
			fmt.Fprintf(&b, "== %s (%d records)\n", entityType, len(recs))
			for _, rec := range recs {
				b.WriteString(rec.DumpAttributes())
			}
			b.WriteString("\n")
			text = b.String()
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "dump failed", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(map[string]any{"dump": text})
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
