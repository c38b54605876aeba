// Package navigation declares the TurtleBot 4 localization and SLAM launches.
package navigation

import (
	"sort"

	"github.com/rzbill/navlaunch/pkg/types"
)

// Packages referenced by the workflows.
const (
	NavigationPackage  = "turtlebot4_navigation"
	Nav2BringupPackage = "nav2_bringup"
	SLAMToolboxPackage = "slam_toolbox"
	RVizPackage        = "rviz2"
)

// SLAM node executables.
const (
	SyncSLAMExecutable  = "sync_slam_toolbox_node"
	AsyncSLAMExecutable = "async_slam_toolbox_node"
)

// SLAMRemappings moves the global TF, scan and map topics into the pushed
// namespace.
var SLAMRemappings = [][2]string{
	{"/tf", "tf"},
	{"/tf_static", "tf_static"},
	{"/scan", "scan"},
	{"/map", "map"},
	{"/map_metadata", "map_metadata"},
}

func useSimTimeArgument() types.Argument {
	return types.Argument{
		Name:        "use_sim_time",
		Default:     types.Text("true"),
		Choices:     types.BoolChoices,
		Description: "Use sim time",
	}
}

func namespaceArgument() types.Argument {
	return types.Argument{
		Name:        "namespace",
		Default:     types.Text(""),
		Description: "Robot namespace",
	}
}

func useSimTimeParameters() types.ParameterMap {
	return types.ParameterMap{{Name: "use_sim_time", Value: types.LaunchConfiguration("use_sim_time")}}
}

func rvizNode(config string) *types.Node {
	return &types.Node{
		Package:    RVizPackage,
		Executable: "rviz2",
		Name:       "rviz2",
		Output:     types.OutputScreen,
		Arguments: []types.Substitution{
			types.Text("-d"),
			types.PackagePath(NavigationPackage, "viz", config),
		},
		Parameters: []types.ParameterOverlay{useSimTimeParameters()},
	}
}

// Localization runs nav2 localization with a map under the robot namespace,
// plus rviz2 outside it.
func Localization() *types.LaunchDescription {
	namespace := types.LaunchConfiguration("namespace")
	useSimTime := types.LaunchConfiguration("use_sim_time")

	return &types.LaunchDescription{
		Name:        "localization",
		Description: "Localize against a saved map with nav2 AMCL and visualize in RViz",
		Arguments: []types.Argument{
			useSimTimeArgument(),
			namespaceArgument(),
			{
				Name:        "params",
				Default:     types.PackagePath(NavigationPackage, "config", "localization.yaml"),
				Description: "Localization parameters",
			},
			{
				Name:        "map",
				Default:     types.PackagePath(NavigationPackage, "maps", "map.yaml"),
				Description: "Full path to map yaml file to load",
			},
		},
		Actions: []types.Action{
			&types.Group{
				PushNamespace: namespace,
				Actions: []types.Action{
					&types.IncludeLaunch{
						Path: types.PackagePath(Nav2BringupPackage, "launch", "localization_launch.py"),
						Arguments: []types.LaunchArgument{
							{Name: "namespace", Value: namespace},
							{Name: "map", Value: types.LaunchConfiguration("map")},
							{Name: "use_sim_time", Value: useSimTime},
							{Name: "params_file", Value: types.LaunchConfiguration("params")},
						},
					},
				},
			},
			rvizNode("1.rviz"),
		},
	}
}

// SLAM runs slam_toolbox, synchronous or asynchronous, under the robot
// namespace, plus rviz2 outside it.
func SLAM() *types.LaunchDescription {
	namespace := types.LaunchConfiguration("namespace")
	sync := types.LaunchConfiguration("sync")

	slamParams := types.RewrittenYAML{
		Source:       types.LaunchConfiguration("params"),
		RootKey:      namespace,
		Rewrites:     map[string]types.Substitution{},
		ConvertTypes: true,
	}

	remappings := make([]types.Remapping, 0, len(SLAMRemappings))
	for _, r := range SLAMRemappings {
		remappings = append(remappings, types.Remapping{From: types.Text(r[0]), To: types.Text(r[1])})
	}

	slamNode := func(exe string, cond types.Condition) *types.Node {
		return &types.Node{
			Package:    SLAMToolboxPackage,
			Executable: exe,
			Name:       "slam_toolbox",
			Output:     types.OutputScreen,
			Parameters: []types.ParameterOverlay{slamParams, useSimTimeParameters()},
			Remappings: remappings,
			Condition:  cond,
		}
	}

	return &types.LaunchDescription{
		Name:        "slam",
		Description: "Build a map with slam_toolbox and visualize in RViz",
		Arguments: []types.Argument{
			useSimTimeArgument(),
			{
				Name:        "sync",
				Default:     types.Text("true"),
				Choices:     types.BoolChoices,
				Description: "Use synchronous SLAM",
			},
			namespaceArgument(),
			{
				Name:        "params",
				Default:     types.PackagePath(NavigationPackage, "config", "slam.yaml"),
				Description: "SLAM parameters",
			},
		},
		Actions: []types.Action{
			&types.Group{
				PushNamespace: namespace,
				Actions: []types.Action{
					slamNode(SyncSLAMExecutable, types.IfCondition{Expression: sync}),
					slamNode(AsyncSLAMExecutable, types.UnlessCondition{Expression: sync}),
				},
			},
			rvizNode("slam.rviz"),
		},
	}
}

// Constructor builds a fresh launch description.
type Constructor func() *types.LaunchDescription

var registry = map[string]Constructor{
	"localization": Localization,
	"slam":         SLAM,
}

// Names lists the registered workflows in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a new launch description for the named workflow.
func Lookup(name string) (*types.LaunchDescription, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, types.NewValidationError("unknown workflow %q, available: %v", name, Names())
	}
	return ctor(), nil
}
