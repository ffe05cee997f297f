package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Write encodes models as an indented JSON array.
func Write(w io.Writer, models []*Model) error {
	if models == nil {
		models = []*Model{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models); err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	return nil
}

// WriteDir writes each model to <dir>/<namespace>.json and returns the
// paths written. The empty namespace is written to default.json. dir is
// created if needed. Nothing is written when a namespace is not a valid
// file name.
func WriteDir(dir string, models []*Model) ([]string, error) {
	names := make([]string, len(models))
	for i, m := range models {
		name, err := fileName(m.Name)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(models))
	for i, m := range models {
		path := filepath.Join(dir, names[i])
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode %s: %w", m.Name, err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// fileName returns the file name for a namespace. Namespaces that are not a
// plain file name, such as "a/b" or "..", are rejected.
func fileName(namespace string) (string, error) {
	if namespace == "" {
		return "default.json", nil
	}
	if namespace == "." || namespace == ".." || strings.ContainsAny(namespace, `/\`) || filepath.Base(namespace) != namespace {
		return "", fmt.Errorf("namespace %q cannot be used as a file name", namespace)
	}
	return namespace + ".json", nil
}
