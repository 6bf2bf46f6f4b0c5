package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┌┐┌┌─┐┬  ┬
  ╚╗╔╝│││├─┤└┐┌┘
   ╚╝ ┘└┘┴ ┴ └┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "vnav",
		Short: "Inspect and exercise vnav route tables",
		Long: `vnav loads a route table and runs navigations against it.

  • List and validate routes
  • Resolve locations without navigating
  • Simulate navigation sequences
  • Serve a devtools API with metrics and a WebSocket location bridge`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default vnav.{yaml,json,toml} in the working directory)")
	flags.StringVarP(&a.routesFile, "routes", "r", "", "route table file (default from config)")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		routesCmd(a),
		resolveCmd(a),
		simulateCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
