// deckpdf captures an interactive web presentation as a PDF.
//
// Usage:
//
//	deckpdf <url> [-o deck.pdf] [-e email] [--debug]
//	deckpdf capture <url> [flags]
//	deckpdf info <file.pdf>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logFormat  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	c := &captureFlags{}

	root := &cobra.Command{
		Use:   "deckpdf [url]",
		Short: "Capture a web presentation as a PDF",
		Long: `deckpdf opens a presentation in headless Chrome, gets past an email gate,
steps through every slide and saves the screenshots as a PDF, one slide per page.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runCapture(cmd, args[0], c, g)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "TOML config file (default: <user config dir>/deckpdf/config.toml)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: text or json")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	c.register(root)

	root.AddCommand(newCaptureCmd(g))
	root.AddCommand(newInfoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
