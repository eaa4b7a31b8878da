package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leitmotif-dev/stratum/internal/schema"
)

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the entity types declared in the model",
		Long: `List every entity type in the CUE model with its declared attributes.

Example:
  stratum types --model ./model`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTypes(rootOpts, cmd)
		},
	}
	return cmd
}

func listTypes(opts *RootOptions, cmd *cobra.Command) error {
	model, err := schema.Load(opts.ModelDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Format == "json" {
		type attrInfo struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			Required bool   `json:"required,omitempty"`
			Target   string `json:"target,omitempty"`
		}
		type typeInfo struct {
			Name       string     `json:"name"`
			Attributes []attrInfo `json:"attributes"`
		}
		types := make([]typeInfo, 0, len(model.Entities))
		for _, et := range model.Entities {
			ti := typeInfo{Name: et.Name}
			for _, a := range et.Attributes {
				ti.Attributes = append(ti.Attributes, attrInfo{
					Name:     a.Name,
					Kind:     string(a.Kind),
					Required: a.Required,
					Target:   a.Target,
				})
			}
			types = append(types, ti)
		}
		return out.Success(types)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "model %s (version %d)\n", model.Name, model.Version)
	for _, et := range model.Entities {
		fmt.Fprintf(&b, "%s\n", et.Name)
		for _, a := range et.Attributes {
			fmt.Fprintf(&b, "  %s %s", a.Name, a.Kind)
			if a.Kind == schema.KindRef {
				fmt.Fprintf(&b, " -> %s", a.Target)
			}
			if a.Required {
				b.WriteString(" (required)")
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
