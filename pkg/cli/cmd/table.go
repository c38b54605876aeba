package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rzbill/navlaunch/pkg/cli/format"
	"github.com/rzbill/navlaunch/pkg/launch"
	"github.com/rzbill/navlaunch/pkg/orchestrator"
	"github.com/rzbill/navlaunch/pkg/types"
	"gopkg.in/yaml.v3"
)

// renderTable writes rows, the first being the header, as a pterm table.
func renderTable(w io.Writer, rows [][]string) error {
	if !format.IsColorEnabled() {
		pterm.DisableColor()
	}
	table := pterm.DefaultTable.WithHasHeader(true).
		WithHeaderStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold))

	out, err := table.WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func renderArguments(w io.Writer, desc *types.LaunchDescription) error {
	rows := [][]string{{"NAME", "DEFAULT", "CHOICES", "DESCRIPTION"}}
	for _, arg := range desc.Arguments {
		def := arg.DescribeDefault()
		if arg.Default == nil {
			def = "(required)"
		}
		choices := "-"
		if len(arg.Choices) > 0 {
			choices = strings.Join(arg.Choices, ", ")
		}
		rows = append(rows, []string{arg.Name, quoteEmpty(def), choices, arg.Description})
	}
	return renderTable(w, rows)
}

func renderPlan(w io.Writer, plan *launch.Plan, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return fmt.Errorf("failed to marshal plan to YAML: %w", err)
		}
		return enc.Close()
	}

	args := [][]string{{"ARGUMENT", "VALUE", "SOURCE"}}
	for _, a := range plan.Arguments {
		source := "default"
		if a.Overridden {
			source = "override"
		}
		args = append(args, []string{a.Name, quoteEmpty(a.Value), source})
	}
	if err := renderTable(w, args); err != nil {
		return err
	}

	procs := [][]string{{"ID", "KIND", "NODE", "OUTPUT", "COMMAND"}}
	for _, p := range plan.Processes {
		node := p.FullName()
		if node == "" {
			node = "-"
		}
		procs = append(procs, []string{p.ID, string(p.Kind), node, string(p.Output), strings.Join(p.Command, " ")})
	}
	return renderTable(w, procs)
}

func renderSummary(w io.Writer, result *orchestrator.Result) error {
	rows := [][]string{{"PROCESS", "STATE", "EXIT CODE", "SIGNAL", "LOG"}}
	for _, s := range result.Statuses {
		signal, logPath := s.Signal, s.LogPath
		if signal == "" {
			signal = "-"
		}
		if logPath == "" {
			logPath = "-"
		}
		rows = append(rows, []string{
			s.ID,
			format.StateLabel(string(s.State)),
			fmt.Sprint(s.ExitCode),
			signal,
			logPath,
		})
	}
	return renderTable(w, rows)
}

func quoteEmpty(s string) string {
	if s == "" {
		return "''"
	}
	return s
}
