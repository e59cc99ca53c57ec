package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the services and modules of the booted application",
		Long: `Boot the demo application and list every registered service with its kind,
whether it has been built, and its decorators, followed by the loaded modules.

With --output yaml the same information is printed as a YAML document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.runStatus(cmd.OutOrStdout())
		},
	}
}

func (g *globals) runStatus(w io.Writer) error {
	c, report, err := g.boot(io.Discard)
	if err != nil {
		return err
	}

	if g.output == outputYAML {
		out, err := c.Describe().YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}

	heading(w, "Services")
	_, _ = fmt.Fprintln(w, c.Status())
	printTimings(w, report)
	return nil
}
