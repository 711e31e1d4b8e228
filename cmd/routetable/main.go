package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rterrors "github.com/vango-dev/routetable/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		rterrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "routetable",
		Short: "Inspect and serve the application route table",
		Long: `routetable resolves browser paths against the application's declared
route table.

It can list the table, resolve paths the way the client router does
(following redirects with --chase), validate the declarations, and run
an HTTP server that answers deep links and drives live navigation over
WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to routetable.toml (default: search upward from the working directory)")

	rootCmd.AddCommand(
		routesCmd(opts),
		resolveCmd(opts),
		validateCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
