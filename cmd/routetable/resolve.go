package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	rterrors "github.com/vango-dev/routetable/internal/errors"
	"github.com/vango-dev/routetable/pkg/router"
)

func resolveCmd(opts *options) *cobra.Command {
	var (
		chase bool
		load  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve paths against the route table",
		Long: `Resolve each path and print the matched components, the redirect
target, or that nothing matched.

With --chase, redirects are followed the way navigation follows them.
With --load, the matched components are fetched from the configured
loader. The command exits non-zero if any path does not match.

Examples:
  routetable resolve /login /mypage
  routetable resolve --chase /mypage
  routetable resolve --chase --load /adminPage/notice/42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if load {
				chase = true
			}
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			missed := 0
			for _, path := range args {
				ok, err := resolveOne(cmd.Context(), w, e.table, path, chase, load)
				if err != nil {
					return err
				}
				if !ok {
					missed++
				}
			}
			if missed > 0 {
				return rterrors.NoMatch(strings.Join(args, " ")).
					WithDetail(fmt.Sprintf("%d of %d paths did not match", missed, len(args)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&chase, "chase", false, "Follow redirects")
	cmd.Flags().BoolVar(&load, "load", false, "Load the matched components (implies --chase)")

	return cmd
}

// resolveOne prints the resolution of path and reports whether it matched
// (a plain redirect counts as a match).
func resolveOne(ctx context.Context, w io.Writer, table *router.Table, path string, chase, load bool) (bool, error) {
	var res router.Result
	if chase {
		c := table.Chase(path)
		res = c.Result
		if c.Redirects > 0 || c.Err != nil {
			info(w, "%s", strings.Join(c.Trail, " → "))
		}
		if c.Err != nil {
			errorMsg(w, "%s", rterrors.FromError(c.Err, rterrors.CodeRedirectLoop).FormatCompact())
			return false, nil
		}
	} else {
		res = table.Resolve(path)
	}

	switch res.Kind {
	case router.KindRedirect:
		success(w, "%s → %s", res.Path, res.Redirect)
		return true, nil
	case router.KindNoMatch:
		errorMsg(w, "%s", rterrors.NoMatch(res.Path).FormatCompact())
		return false, nil
	}

	success(w, "%s  %s  [%s]", res.Path, res.Route, strings.Join(res.Components(), " > "))
	if len(res.Params) > 0 {
		info(w, "params: %s", formatParams(res.Params))
	}
	if leaf := res.Leaf(); leaf != nil && leaf.Props != nil {
		info(w, "props:  %s", formatParams(leaf.Props))
	}

	if !load {
		return true, nil
	}
	for _, l := range res.Layers {
		c, err := l.Component.Load(ctx)
		if err != nil {
			return false, rterrors.FromError(err, rterrors.CodeLoadFailed)
		}
		info(w, "loaded %s (%s, sha256:%.12s)", c.Name, units.HumanSize(float64(c.Size)), c.Digest)
	}
	return true, nil
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}
