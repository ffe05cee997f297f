package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ReadModels decodes parser output from r. The input is either a single
// Model object or an array of Models.
//
// Elements with an unknown $type decode without error; the importer skips
// them. ReadModels does not close r.
func ReadModels(r io.Reader) ([]*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: empty input")
	}

	if data[0] == '[' {
		var models []*Model
		if err := json.Unmarshal(data, &models); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return slices.DeleteFunc(models, func(m *Model) bool { return m == nil }), nil
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return []*Model{&m}, nil
}

// ReadModelsFile reads models from a JSON file at path.
func ReadModelsFile(path string) ([]*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	models, err := ReadModels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return models, nil
}

// ReadModelsPaths reads every path in order. Directories are expanded to
// the *.json files they contain (non-recursive, sorted by name).
func ReadModelsPaths(paths ...string) ([]*Model, error) {
	var models []*Model
	for _, p := range paths {
		files, err := expandPath(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			ms, err := ReadModelsFile(f)
			if err != nil {
				return nil, err
			}
			models = append(models, ms...)
		}
	}
	return models, nil
}

func expandPath(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", p, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// WriteModels encodes models as an indented JSON array.
func WriteModels(w io.Writer, models []*Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
