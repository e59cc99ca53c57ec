package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gburgyan/go-timing"
	"github.com/spf13/cobra"

	injector "github.com/gburgyan/go-injector"
	"github.com/gburgyan/go-injector/config"
	"github.com/gburgyan/go-injector/internal/demo"
)

// Output formats of the status command.
const (
	outputText = "text"
	outputYAML = "yaml"
)

var (
	colorCyan    = lipgloss.Color("14")
	colorDimGray = lipgloss.Color("240")

	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDimGray)
)

// globals holds the values of the persistent flags.
type globals struct {
	configFile string
	strict     bool
	verbose    bool
	timing     bool
	output     string

	settings *config.Settings
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "modgraph",
		Short: "Inspect a module-based application container",
		Long: `modgraph boots the demo application in a dependency injection container and
reports on it.

Settings come from the config file, INJECTOR_* environment variables and flags, in
increasing order of precedence.`,
		PersistentPreRunE: g.initialize,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configFile, "config", "c", "", "path to config file (env: INJECTOR_CONFIG)")
	flags.BoolVar(&g.strict, "strict", false, "require explicit dependency annotations (env: INJECTOR_STRICT)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log container activity")
	flags.BoolVar(&g.timing, "timing", false, "report how long each service took to build (env: INJECTOR_TIMING)")
	flags.StringVarP(&g.output, "output", "o", outputText, "output format: text or yaml")

	rootCmd.AddCommand(newStatusCmd(g))
	rootCmd.AddCommand(newRunCmd(g))
	return rootCmd
}

// initialize loads the settings and applies the flags that were given explicitly.
func (g *globals) initialize(cmd *cobra.Command, _ []string) error {
	if g.output != outputText && g.output != outputYAML {
		return fmt.Errorf("unknown output format %q", g.output)
	}

	configFile := g.configFile
	if configFile == "" {
		configFile = os.Getenv("INJECTOR_CONFIG")
	}
	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("strict") {
		settings.Strict = g.strict
	}
	if flags.Changed("timing") {
		settings.Timing = g.timing
	}
	if g.verbose {
		settings.LogLevel = log.DebugLevel.String()
	}
	g.settings = settings

	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	g.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:           level,
		ReportTimestamp: g.verbose,
		Prefix:          "modgraph",
	})
	g.logger.Debug("settings loaded", "config", configFile, "strict", settings.Strict, "timing", settings.Timing)
	return nil
}

// boot starts the demo application. The journal writes to out. The returned timing report
// is nil unless timing is enabled.
func (g *globals) boot(out io.Writer) (*injector.Container, fmt.Stringer, error) {
	var timingRoot context.Context
	var report fmt.Stringer
	if g.settings.Timing {
		root := timing.Root(context.Background())
		timingRoot, report = root, root
	}

	opts, err := g.settings.Options(g.logger, timingRoot)
	if err != nil {
		return nil, nil, err
	}

	c, err := demo.Boot(out, opts...)
	if err != nil {
		g.logger.Error("boot failed", "err", err)
		g.logger.Debugf("%+v", err)
		return nil, nil, err
	}
	return c, report, nil
}

func heading(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, styleHeading.Render(title))
}

func printTimings(w io.Writer, report fmt.Stringer) {
	if report == nil {
		return
	}
	_, _ = fmt.Fprintln(w)
	heading(w, "Timings")
	_, _ = fmt.Fprintln(w, report.String())
}
