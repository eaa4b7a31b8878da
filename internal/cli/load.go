package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leitmotif-dev/stratum/internal/record"
)

// Fixture is a YAML file of records to load in one commit.
type Fixture struct {
	// Records lists the records in load order. Refs must point at records
	// that exist by commit time, earlier in the same fixture included.
	Records []FixtureRecord `yaml:"records"`
}

// FixtureRecord is one record in a fixture.
type FixtureRecord struct {
	// Type is the entity type name.
	Type string `yaml:"type"`

	// ID is the record id.
	ID string `yaml:"id"`

	// Attrs maps attribute names to plain YAML values. Each value is
	// coerced to the attribute's declared kind; times are RFC 3339 strings,
	// bytes are base64 strings.
	Attrs map[string]any `yaml:"attrs"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <fixture.yaml>",
		Short: "Load records from a YAML fixture",
		Long: `Stage every record in the fixture and commit them in one transaction.
Records that already exist are overwritten.

Example:
  stratum load seed.yaml --model ./model --db shop.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadFixture(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func loadFixture(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read fixture", err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return WrapExitError(ExitCommandError, "failed to parse fixture", err)
	}
	if len(fx.Records) == 0 {
		return NewExitError(ExitCommandError, "fixture contains no records")
	}

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	for i, fr := range fx.Records {
		et, ok := s.Model().EntityType(fr.Type)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("record %d: unknown entity type %q", i, fr.Type))
		}
		if fr.ID == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("record %d (%s): id is required", i, fr.Type))
		}

		rec := record.New(et, fr.ID)
		for name, raw := range fr.Attrs {
			if err := rec.SetAny(name, raw); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("record %d (%s %s)", i, fr.Type, fr.ID), err)
			}
		}

		if _, _, err := s.InsertOrUpdate(ctx, rec, false); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("record %d (%s %s)", i, fr.Type, fr.ID), err)
		}
	}

	if err := s.Commit(ctx); err != nil {
		return WrapExitError(ExitFailure, "commit failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(map[string]any{"loaded": len(fx.Records)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records\n", len(fx.Records))
	return nil
}
