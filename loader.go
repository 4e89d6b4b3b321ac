package poseinterface

// Label-set loading with format inference by file extension.

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// A Loader parses one native annotation format into the intermediate
// label-set representation.
type Loader interface {
	Load(path string) (*LabelSet, error)
}

// loaders maps lower-case file extensions (including the dot) to the Loader
// for that format.
var loaders = map[string]Loader{
	".csv":  dlcLoader{},
	".json": cocoLoader{},
}

// LoadLabels infers the annotation format of the file at path from its file
// extension and parses it into a LabelSet.
//
// Parse failures are reported as-is; callers are not expected to interpret
// them beyond presenting the message.
func LoadLabels(path string) (*LabelSet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported annotation format %q for %q (supported extensions: %s)",
			ext, path, strings.Join(supportedExtensions(), ", "))
	}

	labels, err := l.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotations from %q: %w", path, err)
	}
	return labels, nil
}

// FindLabelFiles lists the annotation files with a supported extension found
// directly in dirPath, in stable order.
func FindLabelFiles(dirPath string) ([]string, error) {
	var found []string
	for _, ext := range supportedExtensions() {
		files, err := filesByExtInDir(dirPath, ext)
		if err != nil {
			return nil, err
		}
		found = append(found, files...)
	}
	sort.Strings(found)
	return found, nil
}

// supportedExtensions lists the registered loader extensions in stable order.
func supportedExtensions() []string {
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
