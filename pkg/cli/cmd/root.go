package cmd

import (
	"io"
	"os"

	"github.com/rzbill/navlaunch/internal/config"
	"github.com/rzbill/navlaunch/pkg/cli/format"
	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/navigation"
	"github.com/rzbill/navlaunch/pkg/types"
	"github.com/rzbill/navlaunch/pkg/version"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// app carries what every command needs once the persistent flags are parsed.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool

	cfg    *config.Config
	logger log.Logger
}

// newRootCmd builds the command tree. Each call returns independent state.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "navlaunch",
		Short: "navlaunch - TurtleBot4 navigation launcher",
		Long: `navlaunch starts the TurtleBot4 navigation workflows. Each workflow
resolves its launch arguments, locates its packages through the ament index
and supervises the resulting ROS 2 processes until they exit or navlaunch is
interrupted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./navlaunch.yaml, then $HOME/.navlaunch/navlaunch.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return types.WrapValidationError(err, "invalid flags")
	})

	for _, name := range navigation.Names() {
		rootCmd.AddCommand(newLaunchCmd(a, name))
	}
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// init loads the configuration and installs the default logger.
func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return types.WrapValidationError(err, "invalid flags")
	}

	lc := cfg.LogConfig()
	lc.DisableColors = !format.IsColorEnabled()
	logger, err := log.ApplyConfig(lc)
	if err != nil {
		return err
	}
	log.SetDefaultLogger(logger)

	a.cfg = cfg
	a.logger = logger
	if cfg.File != "" {
		logger.Debug("Using config file", log.Str("file", cfg.File))
	}
	return nil
}

// Execute runs the CLI and exits with its status code.
// This is called by main.main().
func Execute() {
	os.Exit(run(newRootCmd(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes rootCmd with args and maps the outcome to an exit code.
// Invalid flags and launch arguments exit with 2, every other failure with 1.
func run(rootCmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	format.PrintError(stderr, err)
	if types.IsValidationError(err) {
		return exitUsage
	}
	return exitFailure
}
