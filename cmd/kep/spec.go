package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kep/pkg/definition"
)

func (a *app) specCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Inspect and validate extraction specifications",
	}
	cmd.AddCommand(a.specValidateCmd())
	cmd.AddCommand(a.specShowCmd())
	return cmd
}

func (a *app) specValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate specification files",
		Long: `Validate specification files. Without arguments the configured
specification is validated.

Examples:
  kep spec validate specs/kep.yaml
  kep spec validate --spec-dir specs --spec kep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				spec, err := a.specification()
				if err != nil {
					return err
				}
				if err := definition.Check(spec); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s is valid (%d labels required)\n", spec.Name, len(spec.Required()))
				return nil
			}

			failed := 0
			for _, path := range args {
				spec, err := definition.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s\n", path)
					var verrs definition.ValidationErrors
					if errors.As(err, &verrs) {
						for _, e := range verrs {
							fmt.Fprintf(out, "    %s\n", e.Error())
						}
					} else {
						fmt.Fprintf(out, "    %s\n", err)
					}
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s %s (%d labels required)\n", path, spec.Name, spec.Version, len(spec.Required()))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d specifications invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) specShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configured specification",
		Long: `Show the configured specification.

Examples:
  # Variables, units and definitions as a table
  kep spec show

  # The full specification as YAML, e.g. as a starting point for a new file
  kep spec show --format yaml > specs/kep.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.specification()
			if err != nil {
				return err
			}
			formatStr, _ := cmd.Flags().GetString("format")
			return showSpec(cmd.OutOrStdout(), spec, formatStr)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "Output format (text, yaml, json)")
	return cmd
}

func showSpec(w io.Writer, spec *definition.Specification, formatStr string) error {
	switch formatStr {
	case "yaml":
		data, err := definition.Marshal(spec)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)

	case "text":
		fmt.Fprintf(w, "%s %s\n\n", spec.Name, spec.Version)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DEFINITION\tLABEL\tDESCRIPTION")
		for _, d := range spec.Definitions() {
			for _, ind := range d.Indicators {
				for _, l := range ind.Required() {
					desc := ind.Description
					if desc != "" {
						desc += ", "
					}
					fmt.Fprintf(tw, "%s\t%s\t%s%s\n", shorten(d.Title(), 32), l, desc, spec.UnitName(l.Unit))
				}
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(w, "\n%d unit patterns, %d scoped definitions\n", len(spec.Units), len(spec.Scopes))
		return nil

	default:
		return fmt.Errorf("unknown format: %s (use text, yaml or json)", formatStr)
	}
}
