package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return
			}
			printVersion(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

func printVersion(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "  Version:\t%s\n", version)
	fmt.Fprintf(tw, "  Commit:\t%s\n", commit)
	fmt.Fprintf(tw, "  Built:\t%s\n", date)
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		fmt.Fprintf(tw, "  Module:\t%s %s\n", bi.Main.Path, bi.Main.Version)
	}
	fmt.Fprintf(tw, "  Go version:\t%s\n", runtime.Version())
	fmt.Fprintf(tw, "  OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	_ = tw.Flush()
}
