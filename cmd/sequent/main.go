// Command sequent serves the sequential thinking tool over MCP.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoobzio/sequent/internal/config"
)

func main() {
	if err := newRootCmd(nil, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the configuration shared by every command. Flags are bound
// over values read from the environment, so flags win.
type app struct {
	cfg    config.Config
	envErr error
	out    io.Writer
}

func newRootCmd(environ map[string]string, out io.Writer) *cobra.Command {
	a := &app{out: out}
	a.cfg, a.envErr = config.FromEnv(environ)

	root := &cobra.Command{
		Use:   "sequent",
		Short: "Sequential thinking ledger served over MCP",
		Long: `sequent records the thoughts of a step-by-step reasoning process, with
revisions and branches, and asks a coordinator to respond to each one.
Without a subcommand it runs the server.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		RunE:              a.runServe,
	}
	config.Bind(root.PersistentFlags(), &a.cfg)

	root.AddCommand(a.serveCmd(), a.replayCmd())
	return root
}

func (a *app) prepare(*cobra.Command, []string) error {
	if a.envErr != nil {
		return a.envErr
	}
	return a.cfg.Validate()
}
