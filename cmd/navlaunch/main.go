package main

import "github.com/rzbill/navlaunch/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
