// Package artifact reads and writes collection artifact pairs: a parquet
// document file and a binary vector file, ordinally aligned so that vector
// slot N belongs to document row N.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plenario-ai/plenario/internal/domain"
	"github.com/plenario-ai/plenario/internal/domain/document"
)

const (
	indexSuffix = "_index.vec"
	dataSuffix  = "_data.parquet"
)

// IndexPath returns the vector artifact path for a collection.
func IndexPath(dir, name string) string {
	return filepath.Join(dir, name+indexSuffix)
}

// DataPath returns the document artifact path for a collection.
func DataPath(dir, name string) string {
	return filepath.Join(dir, name+dataSuffix)
}

// Discover returns the collection names that have at least one artifact half
// in dir, sorted by name. Load decides whether a pair is complete and sound.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var name string
		switch {
		case strings.HasSuffix(e.Name(), indexSuffix):
			name = strings.TrimSuffix(e.Name(), indexSuffix)
		case strings.HasSuffix(e.Name(), dataSuffix):
			name = strings.TrimSuffix(e.Name(), dataSuffix)
		default:
			continue
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Pair is a fully loaded and verified collection artifact pair.
type Pair struct {
	Name      string
	Dim       int
	Vectors   []float32 // row-major, len(Documents)*Dim
	Documents []document.Document
}

// Load reads one collection's artifact pair and verifies ordinal alignment.
func Load(dir, name string) (*Pair, error) {
	dim, vectors, err := ReadVec(IndexPath(dir, name))
	if err != nil {
		return nil, fmt.Errorf("index artifact: %w", err)
	}

	docs, err := ReadData(DataPath(dir, name), name)
	if err != nil {
		return nil, fmt.Errorf("data artifact: %w", err)
	}

	count := len(vectors) / dim
	if count != len(docs) {
		return nil, fmt.Errorf("%d vectors vs %d documents: %w",
			count, len(docs), domain.ErrIndexMisaligned)
	}

	return &Pair{Name: name, Dim: dim, Vectors: vectors, Documents: docs}, nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place, so readers never observe a partial artifact.
func writeAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
