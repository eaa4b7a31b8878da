package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leitmotif-dev/stratum/internal/attr"
	"github.com/leitmotif-dev/stratum/internal/record"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	ID   string
	Sets []string
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <entity-type> [id]",
		Short: "Insert or update a record",
		Long: `Insert or update one record and commit.

Attribute values are given as --set name=value pairs and parsed against the
attribute's declared kind. If the id argument is omitted a new UUIDv7 id is
generated, which always inserts.

Example:
  stratum put Customer c1 --set email=ada@example.com --set active=true`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				opts.ID = args[1]
			}
			return putRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "attribute assignment as name=value (repeatable)")

	return cmd
}

func putRecord(opts *PutOptions, entityType string, cmd *cobra.Command) error {
	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	et, ok := s.Model().EntityType(entityType)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity type %q", entityType))
	}

	id := opts.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	rec := record.New(et, id)
	for _, pair := range opts.Sets {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want name=value", pair))
		}
		a, ok := et.Attribute(name)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s has no attribute %q", entityType, name))
		}
		v, err := attr.Parse(a.Kind, raw)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid value for %q", name), err)
		}
		if err := rec.Set(name, v); err != nil {
			return WrapExitError(ExitCommandError, "set attribute", err)
		}
	}

	live, created, err := s.InsertOrUpdate(cmd.Context(), rec, true)
	if err != nil {
		return WrapExitError(ExitFailure, "put failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		data := recordJSON(live)
		data["created"] = created
		return out.Success(data)
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, entityType, live.ID())
	return nil
}
