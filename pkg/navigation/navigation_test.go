package navigation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rzbill/navlaunch/pkg/ament"
	"github.com/rzbill/navlaunch/pkg/launch"
	"github.com/rzbill/navlaunch/pkg/params"
	"github.com/rzbill/navlaunch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slamYAML = `slam_toolbox:
  ros__parameters:
    solver_plugin: solver_plugins::CeresSolver
    resolution: 0.05
    max_laser_range: 12.0
    use_scan_matching: true
`

type install struct {
	prefix string
	runDir string
	index  *ament.Index
}

func (i *install) share(pkg string) string {
	return filepath.Join(i.prefix, "share", pkg)
}

// newInstall fakes an ament prefix with every package the workflows use.
func newInstall(t *testing.T) *install {
	t.Helper()
	prefix := t.TempDir()
	marker := filepath.Join(prefix, "share", "ament_index", "resource_index", "packages")
	require.NoError(t, os.MkdirAll(marker, 0755))
	for _, pkg := range []string{NavigationPackage, Nav2BringupPackage, SLAMToolboxPackage, RVizPackage} {
		require.NoError(t, os.WriteFile(filepath.Join(marker, pkg), nil, 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(prefix, "share", pkg), 0755))
	}
	config := filepath.Join(prefix, "share", NavigationPackage, "config")
	require.NoError(t, os.MkdirAll(config, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(config, "slam.yaml"), []byte(slamYAML), 0644))

	return &install{prefix: prefix, runDir: t.TempDir(), index: ament.NewIndex([]string{prefix})}
}

func (i *install) evaluate(t *testing.T, desc *types.LaunchDescription, overrides map[string]string) *launch.Plan {
	t.Helper()
	plan, err := launch.NewEvaluator(i.index, launch.WithRunDir(i.runDir)).Evaluate(desc, overrides)
	require.NoError(t, err)
	return plan
}

func TestDescriptionsValidate(t *testing.T) {
	for _, name := range Names() {
		desc, err := Lookup(name)
		require.NoError(t, err)
		assert.NoError(t, desc.Validate(), name)
		assert.Equal(t, name, desc.Name)
	}
	_, err := Lookup("teleop")
	assert.True(t, types.IsValidationError(err))
}

func TestArgumentDeclarations(t *testing.T) {
	loc := Localization()
	var names []string
	for _, a := range loc.Arguments {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"use_sim_time", "namespace", "params", "map"}, names)

	slam := SLAM()
	names = nil
	for _, a := range slam.Arguments {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"use_sim_time", "sync", "namespace", "params"}, names)

	sync, ok := slam.Argument("sync")
	require.True(t, ok)
	assert.Equal(t, "Use synchronous SLAM", sync.Description)
	assert.Equal(t, types.BoolChoices, sync.Choices)
	assert.Equal(t, "$(find-pkg-share turtlebot4_navigation)/config/slam.yaml", func() string {
		p, _ := slam.Argument("params")
		return p.DescribeDefault()
	}())
}

func TestLocalization_Defaults(t *testing.T) {
	inst := newInstall(t)
	plan := inst.evaluate(t, Localization(), nil)

	args := map[string]string{}
	for _, a := range plan.Arguments {
		assert.False(t, a.Overridden)
		args[a.Name] = a.Value
	}
	assert.Equal(t, map[string]string{
		"use_sim_time": "true",
		"namespace":    "",
		"params":       filepath.Join(inst.share(NavigationPackage), "config", "localization.yaml"),
		"map":          filepath.Join(inst.share(NavigationPackage), "maps", "map.yaml"),
	}, args)

	require.Len(t, plan.Processes, 2)
	inc := plan.Processes[0]
	assert.Equal(t, types.ProcessKindInclude, inc.Kind)
	assert.Equal(t, []string{
		"ros2", "launch",
		filepath.Join(inst.share(Nav2BringupPackage), "launch", "localization_launch.py"),
		"namespace:=",
		"map:=" + args["map"],
		"use_sim_time:=true",
		"params_file:=" + args["params"],
	}, inc.Command)

	rviz := plan.Processes[1]
	assert.Equal(t, "rviz2", rviz.Name)
	assert.Equal(t, types.OutputScreen, rviz.Output)
	assert.Equal(t, []string{"-d", filepath.Join(inst.share(NavigationPackage), "viz", "1.rviz")}, rviz.Arguments)
	require.Len(t, rviz.Parameters, 1)
	assert.Equal(t, []types.ParameterValue{{Name: "use_sim_time", Value: true}}, rviz.Parameters[0].Values)
	assert.Equal(t, filepath.Join(inst.prefix, "lib", "rviz2", "rviz2"), rviz.Command[0])
}

func TestSLAM_Defaults(t *testing.T) {
	inst := newInstall(t)
	plan := inst.evaluate(t, SLAM(), nil)

	params, ok := plan.Argument("params")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(inst.share(NavigationPackage), "config", "slam.yaml"), params)

	rviz := plan.ByExecutable("rviz2")
	require.Len(t, rviz, 1)
	assert.Equal(t, []string{"-d", filepath.Join(inst.share(NavigationPackage), "viz", "slam.rviz")}, rviz[0].Arguments)
}

func TestSLAM_ExactlyOneNode(t *testing.T) {
	tests := []struct {
		sync     string
		active   string
		inactive string
	}{
		{"true", SyncSLAMExecutable, AsyncSLAMExecutable},
		{"false", AsyncSLAMExecutable, SyncSLAMExecutable},
	}
	for _, tt := range tests {
		t.Run("sync="+tt.sync, func(t *testing.T) {
			inst := newInstall(t)
			plan := inst.evaluate(t, SLAM(), map[string]string{"sync": tt.sync})

			active := plan.ByExecutable(tt.active)
			require.Len(t, active, 1)
			assert.Empty(t, plan.ByExecutable(tt.inactive))

			node := active[0]
			assert.Equal(t, SLAMToolboxPackage, node.Package)
			assert.Equal(t, "slam_toolbox", node.Name)
			assert.Equal(t, types.OutputScreen, node.Output)
			assert.Equal(t, filepath.Join(inst.prefix, "lib", SLAMToolboxPackage, tt.active), node.Command[0])
		})
	}
}

func TestSLAM_RemappingsIndependentOfArguments(t *testing.T) {
	want := []types.ResolvedRemapping{
		{From: "/tf", To: "tf"},
		{From: "/tf_static", To: "tf_static"},
		{From: "/scan", To: "scan"},
		{From: "/map", To: "map"},
		{From: "/map_metadata", To: "map_metadata"},
	}
	for _, sync := range []string{"true", "false"} {
		for _, ns := range []string{"", "robot1", "/fleet/robot2"} {
			inst := newInstall(t)
			plan := inst.evaluate(t, SLAM(), map[string]string{"sync": sync, "namespace": ns})
			var slam []*types.Process
			slam = append(slam, plan.ByExecutable(SyncSLAMExecutable)...)
			slam = append(slam, plan.ByExecutable(AsyncSLAMExecutable)...)
			require.Len(t, slam, 1)
			assert.Equal(t, want, slam[0].Remappings, "sync=%s namespace=%q", sync, ns)
		}
	}
}

func TestRejectsInvalidUseSimTime(t *testing.T) {
	for _, desc := range []*types.LaunchDescription{Localization(), SLAM()} {
		inst := newInstall(t)
		e := launch.NewEvaluator(inst.index, launch.WithRunDir(inst.runDir))
		_, err := e.Evaluate(desc, map[string]string{"use_sim_time": "yes"})
		require.Error(t, err, desc.Name)
		assert.True(t, types.IsValidationError(err))

		entries, err := os.ReadDir(inst.runDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing may be assembled for %s", desc.Name)
	}

	inst := newInstall(t)
	_, err := launch.NewEvaluator(inst.index, launch.WithRunDir(inst.runDir)).
		Evaluate(SLAM(), map[string]string{"sync": "TRUE"})
	assert.True(t, types.IsValidationError(err))
}

func TestNamespaceScope(t *testing.T) {
	inst := newInstall(t)

	loc := inst.evaluate(t, Localization(), map[string]string{"namespace": "robot1"})
	inc := loc.Processes[0]
	assert.Equal(t, "/robot1", inc.Namespace)
	assert.Contains(t, inc.Command, "namespace:=robot1")
	assert.Equal(t, "", loc.ByExecutable("rviz2")[0].Namespace)

	slam := inst.evaluate(t, SLAM(), map[string]string{"namespace": "robot1", "sync": "false"})
	node := slam.ByExecutable(AsyncSLAMExecutable)[0]
	assert.Equal(t, "/robot1", node.Namespace)
	assert.Equal(t, "/robot1/slam_toolbox", node.FullName())
	assert.Contains(t, node.Command, "__ns:=/robot1")

	rviz := slam.ByExecutable("rviz2")[0]
	assert.Equal(t, "", rviz.Namespace)
	assert.NotContains(t, rviz.Command, "__ns:=/robot1")
}

func TestSLAM_RewrittenParameters(t *testing.T) {
	inst := newInstall(t)
	plan := inst.evaluate(t, SLAM(), map[string]string{"namespace": "robot1", "use_sim_time": "false"})
	node := plan.ByExecutable(SyncSLAMExecutable)[0]
	require.Len(t, node.Parameters, 2)

	rewritten := node.Parameters[0]
	assert.Equal(t, filepath.Join(inst.share(NavigationPackage), "config", "slam.yaml"), rewritten.Source)
	loaded, err := params.Load(rewritten.File)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"robot1": map[string]interface{}{
			"slam_toolbox": map[string]interface{}{
				"ros__parameters": map[string]interface{}{
					"solver_plugin":     "solver_plugins::CeresSolver",
					"resolution":        0.05,
					"max_laser_range":   12.0,
					"use_scan_matching": true,
				},
			},
		},
	}, loaded)

	assert.Equal(t, []types.ParameterValue{{Name: "use_sim_time", Value: false}}, node.Parameters[1].Values)

	// Without a namespace the document is passed through unscoped.
	plain := inst.evaluate(t, SLAM(), nil)
	loaded, err = params.Load(plain.ByExecutable(SyncSLAMExecutable)[0].Parameters[0].File)
	require.NoError(t, err)
	assert.Contains(t, loaded, "slam_toolbox")
}

func TestDeterministicPlans(t *testing.T) {
	inst := newInstall(t)

	tests := []struct {
		ctor      Constructor
		overrides map[string]string
	}{
		{Localization, map[string]string{"namespace": "robot1", "map": "/maps/office.yaml"}},
		{SLAM, map[string]string{"namespace": "robot1", "sync": "false"}},
	}

	for _, tt := range tests {
		first := inst.evaluate(t, tt.ctor(), tt.overrides)
		second := inst.evaluate(t, tt.ctor(), tt.overrides)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s plan changed between evaluations (-first +second):\n%s", first.Launch, diff)
		}
		for name, want := range tt.overrides {
			got, _ := first.Argument(name)
			assert.Equal(t, want, got, "%s argument %s", first.Launch, name)
		}
	}
}

func TestPackages(t *testing.T) {
	assert.Equal(t, []string{Nav2BringupPackage, RVizPackage, NavigationPackage}, Localization().Packages())
	assert.Equal(t, []string{RVizPackage, SLAMToolboxPackage, NavigationPackage}, SLAM().Packages())
}
