// Package catalog loads the ordered problem catalog from JSON or YAML files
// and keeps the stored copy in sync with them.
package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/validate"
)

// Parse decodes a list of problems. format is "json" or "yaml".
func Parse(data []byte, format string) ([]model.Problem, error) {
	var problems []model.Problem
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&problems); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&problems); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return problems, nil
}

// FormatOf derives the catalog format from a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%s: catalog files must be .json, .yaml or .yml", path)
	}
}

// Validate checks required fields and rejects duplicate ids.
func Validate(problems []model.Problem) error {
	v, err := validate.Default()
	if err != nil {
		return err
	}
	seen := make(map[string]int, len(problems))
	var errs []error
	for i, p := range problems {
		if err := v.Struct(p); err != nil {
			errs = append(errs, fmt.Errorf("problem %d: %w", i+1, err))
			continue
		}
		if first, ok := seen[p.ID]; ok {
			errs = append(errs, fmt.Errorf("problem %d: duplicate id %q (first at %d)", i+1, p.ID, first))
			continue
		}
		seen[p.ID] = i + 1
	}
	return errors.Join(errs...)
}

type file struct {
	path     string
	hash     string
	problems []model.Problem
}

func readFile(path string) (file, error) {
	format, err := FormatOf(path)
	if err != nil {
		return file{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return file{}, fmt.Errorf("read %s: %w", path, err)
	}
	problems, err := Parse(data, format)
	if err != nil {
		return file{}, fmt.Errorf("parse %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return file{path: path, hash: hex.EncodeToString(sum[:]), problems: problems}, nil
}

// Load reads and validates the catalog files in order and concatenates them.
func Load(paths ...string) ([]model.Problem, error) {
	var all []model.Problem
	for _, path := range paths {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, f.problems...)
	}
	if err := Validate(all); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return all, nil
}

// Target is where a synced catalog is kept.
type Target interface {
	GetImportedFileHash(path string) (string, error)
	SetImportedFileHash(path, hash string) error
	ReplaceProblems(ps []model.Problem) error
	ListProblems() ([]model.Problem, error)
}

// Sync imports the catalog files into db when any of them changed since the
// last import, and returns the stored catalog. With no paths the stored
// catalog is returned as is.
func Sync(db Target, paths []string) ([]model.Problem, error) {
	files := make([]file, 0, len(paths))
	changed := false
	var all []model.Problem
	for _, path := range paths {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		stored, err := db.GetImportedFileHash(path)
		if err != nil {
			return nil, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if stored != f.hash {
			changed = true
		}
		files = append(files, f)
		all = append(all, f.problems...)
	}

	if !changed {
		stored, err := db.ListProblems()
		if err != nil {
			return nil, err
		}
		// A dropped or reordered file leaves the stored catalog stale.
		if len(paths) == 0 || sameOrder(stored, all) {
			if len(paths) > 0 {
				slog.Info("catalog files unchanged, skipping import", "files", len(paths))
			}
			return stored, nil
		}
	}

	if err := Validate(all); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if err := db.ReplaceProblems(all); err != nil {
		return nil, fmt.Errorf("store catalog: %w", err)
	}
	for _, f := range files {
		if err := db.SetImportedFileHash(f.path, f.hash); err != nil {
			return nil, fmt.Errorf("record import for %s: %w", f.path, err)
		}
	}
	slog.Info("imported catalog", "files", len(files), "problems", len(all))
	return all, nil
}

func sameOrder(a, b []model.Problem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
