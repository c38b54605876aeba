package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rzbill/navlaunch/pkg/ament"
	"github.com/rzbill/navlaunch/pkg/cli/format"
	"github.com/rzbill/navlaunch/pkg/cli/utils"
	"github.com/rzbill/navlaunch/pkg/launch"
	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/navigation"
	"github.com/rzbill/navlaunch/pkg/orchestrator"
	"github.com/rzbill/navlaunch/pkg/runner/process"
	"github.com/rzbill/navlaunch/pkg/types"
	"github.com/spf13/cobra"
)

type launchOptions struct {
	showArgs  bool
	print     bool
	output    string
	shareDirs []string
}

func newLaunchCmd(a *app, name string) *cobra.Command {
	opts := &launchOptions{}
	desc, _ := navigation.Lookup(name)

	cmd := &cobra.Command{
		Use:   name + " [name:=value ...]",
		Short: desc.Description,
		Long: fmt.Sprintf("%s\n\nLaunch arguments:\n%s\nArguments are passed as name:=value pairs, like ros2 launch.",
			desc.Description, argumentSummary(desc)),
		Example: fmt.Sprintf(`  navlaunch %[1]s
  navlaunch %[1]s namespace:=/robot1 use_sim_time:=false
  navlaunch %[1]s --show-args
  navlaunch %[1]s --print -o yaml`, name),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLaunch(cmd, name, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.showArgs, "show-args", false, "show the launch arguments and exit")
	cmd.Flags().BoolVar(&opts.print, "print", false, "print the evaluated processes instead of starting them")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format for --print (table, yaml, json)")
	cmd.Flags().StringArrayVar(&opts.shareDirs, "share-dir", nil, "use <dir> as the share directory of <package> (<package>=<dir>, repeatable)")

	return cmd
}

func argumentSummary(desc *types.LaunchDescription) string {
	var b strings.Builder
	for _, arg := range desc.Arguments {
		fmt.Fprintf(&b, "  %s:=<value>\n      %s", arg.Name, arg.Description)
		if len(arg.Choices) > 0 {
			fmt.Fprintf(&b, " (choices: %s)", strings.Join(arg.Choices, ", "))
		}
		if def := arg.DescribeDefault(); def != "" {
			fmt.Fprintf(&b, " (default: '%s')", def)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *app) runLaunch(cmd *cobra.Command, name string, args []string, opts *launchOptions) error {
	desc, err := navigation.Lookup(name)
	if err != nil {
		return err
	}
	if opts.showArgs {
		return renderArguments(cmd.OutOrStdout(), desc)
	}

	switch opts.output {
	case "table", "yaml", "json":
	default:
		return types.NewValidationError("unsupported output format %q, expected table, yaml or json", opts.output)
	}

	overrides, err := utils.ParseLaunchArguments(args)
	if err != nil {
		return err
	}
	resolver, err := a.resolver(opts.shareDirs)
	if err != nil {
		return err
	}

	if opts.print {
		return a.printPlan(cmd, desc, overrides, resolver, opts.output)
	}
	return a.launch(cmd, desc, overrides, resolver)
}

// resolver puts --share-dir overrides in front of the configured resolver.
func (a *app) resolver(shareDirs []string) (ament.Resolver, error) {
	base := a.cfg.Resolver()
	if len(shareDirs) == 0 {
		return base, nil
	}
	overrides := ament.StaticIndex{}
	for _, value := range shareDirs {
		pkg, dir, err := ament.ParseOverride(value)
		if err != nil {
			return nil, types.WrapValidationError(err, "--share-dir")
		}
		overrides[pkg] = dir
	}
	return ament.Chain{overrides, base}, nil
}

func (a *app) evaluatorOptions(runDir string, logger log.Logger) []launch.Option {
	return []launch.Option{
		launch.WithRunDir(runDir),
		launch.WithROS2Binary(a.cfg.Launch.ROS2Binary),
		launch.WithLogger(logger),
	}
}

// printPlan evaluates into a scratch directory that is removed afterwards.
func (a *app) printPlan(cmd *cobra.Command, desc *types.LaunchDescription, overrides map[string]string, resolver ament.Resolver, output string) error {
	if _, err := launch.NewEvaluator(resolver).ResolveArguments(desc, overrides); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "navlaunch-print-")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	plan, err := launch.NewEvaluator(resolver, a.evaluatorOptions(dir, a.logger)...).Evaluate(desc, overrides)
	if err != nil {
		return err
	}
	return renderPlan(cmd.OutOrStdout(), plan, output)
}

func (a *app) launch(cmd *cobra.Command, desc *types.LaunchDescription, overrides map[string]string, resolver ament.Resolver) error {
	// Reject bad arguments before a run directory exists.
	if _, err := launch.NewEvaluator(resolver).ResolveArguments(desc, overrides); err != nil {
		return err
	}

	lr, err := orchestrator.NewRun(a.cfg.Launch.RunDir, desc.Name, time.Now())
	if err != nil {
		return err
	}
	logger := a.logger.With(log.RunID(lr.ID))

	plan, err := launch.NewEvaluator(resolver, a.evaluatorOptions(lr.Dir, logger)...).Evaluate(desc, overrides)
	if err != nil {
		return err
	}

	pr, err := process.NewProcessRunner(
		process.WithBaseDir(lr.Dir),
		process.WithLogger(logger),
		process.WithConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		process.WithColorPrefixes(format.IsColorEnabled()),
		process.WithStopTimeouts(a.cfg.Launch.SigtermTimeout, a.cfg.Launch.SigkillTimeout),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Launching", log.Str("launch", desc.Name), log.Str("run_dir", lr.Dir), log.Int("processes", len(plan.Processes)))

	// A process still alive a second after SIGKILL is abandoned.
	stopTimeout := a.cfg.Launch.SigtermTimeout + a.cfg.Launch.SigkillTimeout + time.Second
	o := orchestrator.NewOrchestrator(pr,
		orchestrator.WithLogger(logger),
		orchestrator.WithStopTimeout(stopTimeout),
	)
	result, err := o.Run(ctx, plan)
	if err != nil {
		return err
	}

	if err := renderSummary(cmd.ErrOrStderr(), result); err != nil {
		return err
	}
	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d processes died, logs are in %s", len(failed), len(result.Statuses), lr.Dir)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
