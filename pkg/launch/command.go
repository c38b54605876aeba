package launch

import "github.com/rzbill/navlaunch/pkg/types"

// NodeCommand builds a node's argument vector:
//
//	<exe> <args...> --ros-args -r __node:=<name> [-r __ns:=<ns>]
//	    [--params-file <file>...] [-r <from>:=<to>...]
func NodeCommand(exe string, p *types.Process) []string {
	cmd := []string{exe}
	cmd = append(cmd, p.Arguments...)
	cmd = append(cmd, "--ros-args")
	if p.Name != "" {
		cmd = append(cmd, "-r", "__node:="+p.Name)
	}
	if p.Namespace != "" {
		cmd = append(cmd, "-r", "__ns:="+p.Namespace)
	}
	for _, param := range p.Parameters {
		cmd = append(cmd, "--params-file", param.File)
	}
	for _, r := range p.Remappings {
		cmd = append(cmd, "-r", r.String())
	}
	return cmd
}

// IncludeCommand builds "ros2 launch <file> <name>:=<value>...".
func IncludeCommand(ros2 string, path string, args []types.LaunchArgumentValue) []string {
	cmd := []string{ros2, "launch", path}
	for _, a := range args {
		cmd = append(cmd, a.Name+":="+a.Value)
	}
	return cmd
}
