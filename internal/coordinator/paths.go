package coordinator

import (
	"path/filepath"
	"strings"
)

// Path layout: every project document lives under <workspace>/scripts as
// <name>-<version>.json with its resource directory <name>-<version>r/
// beside it.

// ScriptsDir returns the directory holding all project documents.
func ScriptsDir(workspace string) string {
	return filepath.Join(workspace, "scripts")
}

// CanonicalPath returns the canonical document path for a project.
func CanonicalPath(workspace, name, version string) string {
	return filepath.Join(ScriptsDir(workspace), name+"-"+version+".json")
}

// ResourceDirFor returns the resource directory belonging to a document path.
func ResourceDirFor(documentPath string) string {
	return strings.TrimSuffix(documentPath, ".json") + "r"
}
