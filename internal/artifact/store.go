package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator"
	"github.com/kaptinlin/jsonrepair"

	"ontoforge/internal/hierarchy"
	"ontoforge/internal/logging"
)

// ErrMissing is returned when a required artifact does not exist.
var ErrMissing = errors.New("required artifact missing")

// Store reads and writes artifacts below one directory.
type Store struct {
	Dir      string
	logger   *log.Logger
	validate *validator.Validate
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *log.Logger) *Store {
	return &Store{
		Dir:      dir,
		logger:   logging.OrDefault(logger),
		validate: validator.New(),
	}
}

// Path resolves an artifact name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(name))
}

// Exists reports whether the artifact is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// WriteJSON encodes v with two-space indentation. The file is written to a
// temporary name first and renamed into place.
func (s *Store) WriteJSON(name string, v any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.WriteFile(name, buf.Bytes())
}

// WriteFile atomically replaces an artifact with data.
func (s *Store) WriteFile(name string, data []byte) error {
	path := s.Path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// ReadJSON decodes an artifact into v. Malformed JSON gets one repair
// attempt; the decoded value must pass struct validation.
func (s *Store) ReadJSON(name string, v any) error {
	data, err := s.read(name)
	if err != nil {
		return err
	}
	if err := s.decode(name, data, v); err != nil {
		return err
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid artifact %s: %w", s.Path(name), err)
	}
	return nil
}

func (s *Store) read(name string) ([]byte, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *Store) decode(name string, data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	repaired, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return fmt.Errorf("malformed artifact %s: %w", s.Path(name), err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("malformed artifact %s after repair: %w", s.Path(name), err)
	}
	s.logger.Warn("repaired malformed artifact", "path", s.Path(name))
	return nil
}

// SaveOntology writes an ontology artifact.
func (s *Store) SaveOntology(name string, o *Ontology) error {
	return s.WriteJSON(name, o)
}

// LoadOntology reads an ontology artifact.
func (s *Store) LoadOntology(name string) (*Ontology, error) {
	var o Ontology
	if err := s.ReadJSON(name, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveTree writes a hierarchy rooted at one node.
func (s *Store) SaveTree(name string, root *hierarchy.Node) error {
	return s.WriteJSON(name, root)
}

type forestDoc struct {
	Roots hierarchy.Forest `validate:"dive,required"`
}

// LoadForest reads a hierarchy artifact holding either one root or a list
// of roots.
func (s *Store) LoadForest(name string) (hierarchy.Forest, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}

	var doc forestDoc
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = s.decode(name, trimmed, &doc.Roots)
	} else {
		var root hierarchy.Node
		err = s.decode(name, trimmed, &root)
		doc.Roots = hierarchy.Forest{&root}
	}
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", s.Path(name), err)
	}
	return doc.Roots, nil
}

// LoadTree reads a hierarchy artifact and returns its single root. A list
// of roots is wrapped under an invisible root called name.
func (s *Store) LoadTree(name, wrapName string) (*hierarchy.Node, error) {
	forest, err := s.LoadForest(name)
	if err != nil {
		return nil, err
	}
	if len(forest) == 1 {
		return forest[0], nil
	}
	return hierarchy.Wrap(wrapName, forest), nil
}

// List returns the artifact files below the store directory as sorted
// slash-separated relative paths.
func (s *Store) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Clean removes the JSON and metrics artifacts at the top of the store
// directory and the views directory. It returns the number of files removed.
func (s *Store) Clean() (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", s.Dir, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".json" && ext != ".prom" {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed++
	}

	views, err := os.ReadDir(s.Path(ViewsDir))
	if err == nil {
		removed += len(views)
	}
	if err := os.RemoveAll(s.Path(ViewsDir)); err != nil {
		return removed, fmt.Errorf("failed to remove views: %w", err)
	}
	return removed, nil
}
