package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rzbill/navlaunch/pkg/types"
)

// ValidateProcess checks that proc can be spawned: its command resolves to an
// executable file and every parameter file it is handed exists.
func ValidateProcess(proc *types.Process) error {
	if proc == nil {
		return fmt.Errorf("process cannot be nil")
	}
	if err := proc.Validate(); err != nil {
		return err
	}

	if err := checkCommand(proc.Command[0]); err != nil {
		if proc.Package != "" {
			return fmt.Errorf("executable %s of package %s: %w", proc.Executable, proc.Package, err)
		}
		return fmt.Errorf("command validation failed: %w", err)
	}

	for _, param := range proc.Parameters {
		if param.File == "" {
			continue
		}
		if err := checkRegularFile(param.File); err != nil {
			return fmt.Errorf("parameter file of process %s: %w", proc.ID, err)
		}
	}
	return nil
}

// checkCommand resolves bare names through PATH and relative paths against
// the working directory.
func checkCommand(command string) error {
	switch {
	case filepath.IsAbs(command):
	case strings.ContainsRune(command, os.PathSeparator):
		abs, err := filepath.Abs(command)
		if err != nil {
			return fmt.Errorf("failed to convert to absolute path: %w", err)
		}
		command = abs
	default:
		if _, err := exec.LookPath(command); err != nil {
			return fmt.Errorf("command '%s' not found in PATH: %w", command, err)
		}
		return nil
	}

	info, err := statRegular(command)
	if err != nil {
		return err
	}
	if info.Mode()&0111 == 0 {
		return fmt.Errorf("file is not executable: %s", command)
	}
	return nil
}

func checkRegularFile(path string) error {
	_, err := statRegular(path)
	return err
}

func statRegular(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return info, nil
}
