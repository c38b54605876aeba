package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Run identifies one launch: generated parameter files and process logs
// live together under Dir.
type Run struct {
	ID  string
	Dir string
}

// NewRun creates a fresh run directory under base, named after the launch,
// the start time and a short random ID.
func NewRun(base, launchName string, now time.Time) (*Run, error) {
	id := uuid.New().String()
	name := fmt.Sprintf("%s-%s-%s", now.Format("2006-01-02-15-04-05"), launchName, id[:8])
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	return &Run{ID: id, Dir: dir}, nil
}
