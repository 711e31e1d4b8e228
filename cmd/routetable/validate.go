package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/routetable/internal/app"
	rterrors "github.com/vango-dev/routetable/internal/errors"
	"github.com/vango-dev/routetable/pkg/router"
)

func validateCmd(opts *options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the route table and configuration",
		Long: `Build the route table and report every defect. Warnings are printed
but only fail the command with --strict.

Examples:
  routetable validate
  routetable validate --strict --config deploy/routetable.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			e, err := opts.setup(errOut)
			var te *router.TableError
			if errors.As(err, &te) {
				for _, re := range rterrors.FromDefects(te.Defects) {
					fmt.Fprint(errOut, re.Format())
				}
				return fmt.Errorf("route table has %d defects", len(te.Defects))
			}
			if err != nil {
				return err
			}

			warnings := e.table.Warnings()
			for _, re := range rterrors.FromDefects(warnings) {
				fmt.Fprint(errOut, re.Format())
			}

			var missing []string
			if e.manifest != nil {
				missing = e.manifest.Missing(e.registry.Names())
				for _, name := range missing {
					warn(errOut, "%s has no manifest entry, falls back to %s", name, name+app.ChunkExt)
				}
			}

			if n := len(warnings) + len(missing); strict && n > 0 {
				return fmt.Errorf("route table has %d warnings", n)
			}

			success(out, "route table is valid (%d routes, %d components)", len(e.table.Routes()), len(e.registry.Names()))
			if len(warnings) > 0 {
				warn(out, "%d warnings", len(warnings))
			}
			if e.manifest != nil {
				info(out, "manifest: %d entries, %d components missing", e.manifest.Len(), len(missing))
			}
			info(out, "loader: %s, max redirects: %d", e.cfg.Loader.Backend, e.table.MaxRedirects())
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}
