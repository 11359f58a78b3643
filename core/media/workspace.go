package media

import (
	"fmt"
	"os"
	"path/filepath"

	"musewave/logger"
)

// Workspace is a scoped scratch directory for one generation's intermediate
// files. Cleanup removes everything; the published artifacts live in object
// storage, never here.
type Workspace struct {
	dir string
}

// NewWorkspace creates a private temp directory tagged with the entropy token
// so concurrent generations never share paths.
func NewWorkspace(entropyToken string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "musewave-"+entropyToken+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Path returns the absolute path for a file inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile stores data under name inside the workspace.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Cleanup removes the workspace directory and all files in it. Safe to defer
// immediately after NewWorkspace.
func (w *Workspace) Cleanup() {
	if w == nil || w.dir == "" {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		logger.Warn("Failed to remove workspace",
			logger.String("dir", w.dir),
			logger.ErrorField(err))
	}
}
