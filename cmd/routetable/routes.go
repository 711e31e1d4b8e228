package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/routetable/pkg/router"
)

func routesCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Print every declared route as an indented tree, in declaration order.

Examples:
  routetable routes
  routetable routes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(e.table.Routes())
			}
			printRoutes(cmd.OutOrStdout(), e.table.Routes())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}

func printRoutes(w io.Writer, infos []router.Info) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTARGET\tNAME")
	for _, i := range infos {
		target := i.Component
		if i.Redirect != "" {
			target = "→ " + i.Redirect
		}
		if i.Props {
			target += " (props)"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", strings.Repeat("  ", i.Depth), i.Path, target, i.Name)
	}
	tw.Flush()
}
