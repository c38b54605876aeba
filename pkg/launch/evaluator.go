// Package launch evaluates launch descriptions into process plans.
package launch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rzbill/navlaunch/pkg/ament"
	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/params"
	"github.com/rzbill/navlaunch/pkg/types"
)

// DefaultROS2Binary runs included launch files.
const DefaultROS2Binary = "ros2"

// ResolvedArgument is a launch argument with its final value.
type ResolvedArgument struct {
	Name       string `json:"name" yaml:"name"`
	Value      string `json:"value" yaml:"value"`
	Overridden bool   `json:"overridden" yaml:"overridden"`
}

// Plan is the evaluated, ordered set of processes of one launch.
type Plan struct {
	Launch    string             `json:"launch" yaml:"launch"`
	RunDir    string             `json:"runDir" yaml:"runDir"`
	Arguments []ResolvedArgument `json:"arguments" yaml:"arguments"`
	Processes []*types.Process   `json:"processes" yaml:"processes"`
}

// Argument returns the resolved value of name.
func (p *Plan) Argument(name string) (string, bool) {
	for _, a := range p.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Process returns the process with the given ID.
func (p *Plan) Process(id string) (*types.Process, bool) {
	for _, proc := range p.Processes {
		if proc.ID == id {
			return proc, true
		}
	}
	return nil, false
}

// ByExecutable returns the processes running exe, in plan order.
func (p *Plan) ByExecutable(exe string) []*types.Process {
	var out []*types.Process
	for _, proc := range p.Processes {
		if proc.Executable == exe {
			out = append(out, proc)
		}
	}
	return out
}

// Evaluator turns launch descriptions into plans.
type Evaluator struct {
	resolver   ament.Resolver
	runDir     string
	ros2Binary string
	logger     log.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRunDir sets where generated parameter files are written.
func WithRunDir(dir string) Option {
	return func(e *Evaluator) {
		e.runDir = dir
	}
}

// WithROS2Binary sets the command used for included launch files.
func WithROS2Binary(bin string) Option {
	return func(e *Evaluator) {
		e.ros2Binary = bin
	}
}

// WithLogger sets the evaluator's logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator resolving packages through resolver.
func NewEvaluator(resolver ament.Resolver, options ...Option) *Evaluator {
	e := &Evaluator{
		resolver:   resolver,
		ros2Binary: DefaultROS2Binary,
		logger:     log.GetDefaultLogger(),
	}
	for _, option := range options {
		option(e)
	}
	e.logger = e.logger.WithComponent("evaluator")
	return e
}

// ResolveArguments assigns every declared argument its override or default
// and checks it against the declared choices. Overrides naming undeclared
// arguments are rejected.
func (e *Evaluator) ResolveArguments(desc *types.LaunchDescription, overrides map[string]string) ([]ResolvedArgument, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	var unknown []string
	for name := range overrides {
		if _, ok := desc.Argument(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, types.NewValidationError("unknown launch arguments for %s: %s", desc.Name, strings.Join(unknown, ", "))
	}

	ctx := &launchContext{values: map[string]string{}, resolver: e.resolver}
	resolved := make([]ResolvedArgument, 0, len(desc.Arguments))
	for _, arg := range desc.Arguments {
		value, overridden := overrides[arg.Name]
		if !overridden {
			if arg.Default == nil {
				return nil, types.NewValidationError("required launch argument '%s' was not provided", arg.Name)
			}
			v, err := types.Perform(ctx, arg.Default)
			if err != nil {
				return nil, fmt.Errorf("default of launch argument '%s': %w", arg.Name, err)
			}
			value = v
		}
		if err := arg.CheckValue(value); err != nil {
			return nil, err
		}
		ctx.values[arg.Name] = value
		resolved = append(resolved, ResolvedArgument{Name: arg.Name, Value: value, Overridden: overridden})
	}
	return resolved, nil
}

// Evaluate resolves arguments, walks the actions and returns the plan. No
// file is written before every argument has been accepted.
func (e *Evaluator) Evaluate(desc *types.LaunchDescription, overrides map[string]string) (*Plan, error) {
	args, err := e.ResolveArguments(desc, overrides)
	if err != nil {
		return nil, err
	}
	if e.runDir == "" {
		return nil, fmt.Errorf("evaluator has no run directory")
	}

	ctx := &launchContext{values: make(map[string]string, len(args)), resolver: e.resolver}
	for _, a := range args {
		ctx.values[a.Name] = a.Value
	}

	w := &walker{
		e:      e,
		ctx:    ctx,
		counts: map[string]int{},
		plan:   &Plan{Launch: desc.Name, RunDir: e.runDir, Arguments: args},
	}
	if err := w.walk(desc.Actions); err != nil {
		return nil, err
	}

	e.logger.Debug("Evaluated launch description",
		log.Str("launch", desc.Name),
		log.Int("processes", len(w.plan.Processes)))
	return w.plan, nil
}

type walker struct {
	e      *Evaluator
	ctx    *launchContext
	plan   *Plan
	counts map[string]int
}

func (w *walker) walk(actions []types.Action) error {
	for _, action := range actions {
		if err := w.action(action); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) action(action types.Action) error {
	var cond types.Condition
	switch a := action.(type) {
	case *types.Group:
		cond = a.Condition
	case *types.Node:
		cond = a.Condition
	case *types.IncludeLaunch:
		cond = a.Condition
	}

	active, err := types.EvaluateCondition(w.ctx, cond)
	if err != nil {
		return fmt.Errorf("%s: %w", action.ActionName(), err)
	}
	if !active {
		w.e.logger.Debug("Skipping inactive action", log.Str("action", action.ActionName()))
		return nil
	}

	switch a := action.(type) {
	case *types.Group:
		return w.group(a)
	case *types.Node:
		return w.node(a)
	case *types.IncludeLaunch:
		return w.include(a)
	default:
		return fmt.Errorf("unsupported action %s", action.ActionName())
	}
}

func (w *walker) group(g *types.Group) error {
	if g.PushNamespace == nil {
		return w.walk(g.Actions)
	}

	ns, err := types.Perform(w.ctx, g.PushNamespace)
	if err != nil {
		return fmt.Errorf("group namespace: %w", err)
	}
	w.ctx.pushNamespace(ns)
	defer w.ctx.popNamespace()
	return w.walk(g.Actions)
}

func (w *walker) nextID(base string) string {
	w.counts[base]++
	return fmt.Sprintf("%s-%d", base, w.counts[base])
}

func (w *walker) node(n *types.Node) error {
	proc := &types.Process{
		ID:         w.nextID(n.Executable),
		Kind:       types.ProcessKindNode,
		Package:    n.Package,
		Executable: n.Executable,
		Name:       n.Name,
		Namespace:  w.ctx.namespace(),
		Output:     n.Output,
	}
	if proc.Output == "" {
		proc.Output = types.OutputLog
	}

	fail := func(err error) error {
		return fmt.Errorf("%s: %w", n.ActionName(), err)
	}

	for _, sub := range n.Arguments {
		v, err := types.Perform(w.ctx, sub)
		if err != nil {
			return fail(err)
		}
		proc.Arguments = append(proc.Arguments, v)
	}

	for i, overlay := range n.Parameters {
		p, err := w.parameter(proc.ID, i, overlay)
		if err != nil {
			return fail(err)
		}
		proc.Parameters = append(proc.Parameters, p)
	}

	for _, r := range n.Remappings {
		from, err := types.Perform(w.ctx, r.From)
		if err != nil {
			return fail(err)
		}
		to, err := types.Perform(w.ctx, r.To)
		if err != nil {
			return fail(err)
		}
		proc.Remappings = append(proc.Remappings, types.ResolvedRemapping{From: from, To: to})
	}

	exe, err := ament.ExecutablePath(w.e.resolver, n.Package, n.Executable)
	if err != nil {
		return fail(err)
	}
	proc.Command = NodeCommand(exe, proc)

	w.plan.Processes = append(w.plan.Processes, proc)
	return nil
}

func (w *walker) parameter(id string, index int, overlay types.ParameterOverlay) (types.ResolvedParameter, error) {
	switch p := overlay.(type) {
	case types.ParameterFile:
		path, err := types.Perform(w.ctx, p.Path)
		if err != nil {
			return types.ResolvedParameter{}, err
		}
		return types.ResolvedParameter{File: path}, nil

	case types.ParameterMap:
		values := make([]types.ParameterValue, 0, len(p))
		for _, entry := range p {
			text, err := types.Perform(w.ctx, entry.Value)
			if err != nil {
				return types.ResolvedParameter{}, err
			}
			values = append(values, types.ParameterValue{Name: entry.Name, Value: params.ParseScalar(text)})
		}
		dest := w.paramPath(id, index, "params")
		if err := params.WriteOverlay(dest, values); err != nil {
			return types.ResolvedParameter{}, err
		}
		return types.ResolvedParameter{File: dest, Values: values}, nil

	case types.RewrittenYAML:
		source, err := types.Perform(w.ctx, p.Source)
		if err != nil {
			return types.ResolvedParameter{}, err
		}
		rootKey, err := types.Perform(w.ctx, p.RootKey)
		if err != nil {
			return types.ResolvedParameter{}, err
		}
		rewrites := make(map[string]string, len(p.Rewrites))
		for k, sub := range p.Rewrites {
			v, err := types.Perform(w.ctx, sub)
			if err != nil {
				return types.ResolvedParameter{}, err
			}
			rewrites[k] = v
		}
		dest := w.paramPath(id, index, "rewritten")
		err = params.RewriteFile(source, dest, params.RewriteOptions{
			RootKey:      rootKey,
			Rewrites:     rewrites,
			ConvertTypes: p.ConvertTypes,
		})
		if err != nil {
			return types.ResolvedParameter{}, err
		}
		return types.ResolvedParameter{File: dest, Source: source}, nil
	}
	return types.ResolvedParameter{}, fmt.Errorf("unsupported parameter overlay %T", overlay)
}

func (w *walker) paramPath(id string, index int, kind string) string {
	return filepath.Join(w.e.runDir, "params", fmt.Sprintf("%s_%d_%s.yaml", id, index, kind))
}

func (w *walker) include(inc *types.IncludeLaunch) error {
	path, err := types.Perform(w.ctx, inc.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", inc.ActionName(), err)
	}

	proc := &types.Process{
		ID:         w.nextID(launchFileStem(path)),
		Kind:       types.ProcessKindInclude,
		Executable: filepath.Base(path),
		Namespace:  w.ctx.namespace(),
		Output:     types.OutputScreen,
	}
	for _, arg := range inc.Arguments {
		v, err := types.Perform(w.ctx, arg.Value)
		if err != nil {
			return fmt.Errorf("%s: argument '%s': %w", inc.ActionName(), arg.Name, err)
		}
		proc.LaunchArguments = append(proc.LaunchArguments, types.LaunchArgumentValue{Name: arg.Name, Value: v})
	}
	proc.Command = IncludeCommand(w.e.ros2Binary, path, proc.LaunchArguments)

	w.plan.Processes = append(w.plan.Processes, proc)
	return nil
}

// launchFileStem strips launch file extensions: "localization_launch.py"
// becomes "localization_launch".
func launchFileStem(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".launch.py", ".launch.xml", ".launch.yaml", ".py", ".xml", ".yaml"} {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}
