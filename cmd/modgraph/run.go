package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRunCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Boot the application and show what its run phase produced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.runRun(cmd.OutOrStdout())
		},
	}
}

func (g *globals) runRun(w io.Writer) error {
	heading(w, "Run")
	c, report, err := g.boot(w)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("modules: %v", c.Modules())))
	printTimings(w, report)
	return nil
}
