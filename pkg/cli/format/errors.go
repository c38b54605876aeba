package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/rzbill/navlaunch/pkg/ament"
	"github.com/rzbill/navlaunch/pkg/types"
)

// PrintError writes err with a hint for the failures users can fix
// themselves.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", paint(boldRed, "Error:"), err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintf(w, "%s %s\n", paint(yellow, "Hint:"), hint)
	}
}

// Hint suggests a fix for err, or returns "".
func Hint(err error) string {
	var notFound *ament.PackageNotFoundError
	switch {
	case errors.As(err, &notFound):
		if len(notFound.Prefixes) == 0 {
			return "run 'source /opt/ros/<distro>/setup.bash' or set ament.prefix_path in navlaunch.yaml"
		}
		return fmt.Sprintf("install %s, or point --share-dir %s=<dir> at its share directory", notFound.Package, notFound.Package)
	case types.IsValidationError(err):
		return "run with --show-args to list the accepted launch arguments"
	}
	return ""
}
