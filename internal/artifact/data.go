package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/plenario-ai/plenario/internal/domain/document"
)

// documentRow is the data artifact schema. Metadata is a JSON object string,
// null when the document carries none.
type documentRow struct {
	Ref      string `parquet:"ref"`
	Text     string `parquet:"text"`
	Metadata string `parquet:"metadata,optional"`
}

// WriteData atomically writes the document artifact for one collection.
// Row order defines the ordinal alignment with the vector artifact.
func WriteData(path string, docs []document.Document) error {
	rows := make([]documentRow, 0, len(docs))
	for _, d := range docs {
		row := documentRow{Ref: d.Ref(), Text: d.Text()}
		if len(d.Meta()) > 0 {
			b, err := json.Marshal(d.Meta())
			if err != nil {
				return fmt.Errorf("marshal metadata for %q: %w", d.Ref(), err)
			}
			row.Metadata = string(b)
		}
		rows = append(rows, row)
	}

	return writeAtomic(path, func(f *os.File) error {
		w := parquet.NewGenericWriter[documentRow](f)
		if len(rows) > 0 {
			if _, err := w.Write(rows); err != nil {
				return fmt.Errorf("write rows: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close writer: %w", err)
		}
		return nil
	})
}

// dataColumns — leaf-level индексы колонок в parquet файле.
type dataColumns struct {
	ref      int
	text     int
	metadata int
}

func resolveDataColumns(pf *parquet.File) dataColumns {
	cols := dataColumns{ref: -1, text: -1, metadata: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "ref":
			cols.ref = i
		case "text":
			cols.text = i
		case "metadata":
			cols.metadata = i
		}
	}
	return cols
}

// ReadData reads the document artifact, hydrating each row with the owning
// collection as its source. Row order is preserved.
func ReadData(path, source string) ([]document.Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	cols := resolveDataColumns(pf)
	if cols.ref < 0 || cols.text < 0 {
		return nil, fmt.Errorf("ref/text columns not found in parquet schema")
	}

	var total int64
	for _, rg := range pf.RowGroups() {
		total += rg.NumRows()
	}

	docs := make([]document.Document, 0, total)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, 512)

		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				doc, err := rowToDocument(buf[i], cols, source)
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}

	return docs, nil
}

func rowToDocument(row parquet.Row, cols dataColumns, source string) (document.Document, error) {
	var ref, text, metaJSON string
	for _, v := range row {
		switch v.Column() {
		case cols.ref:
			ref = v.String()
		case cols.text:
			text = v.String()
		case cols.metadata:
			if !v.IsNull() {
				metaJSON = v.String()
			}
		}
	}

	var meta map[string]string
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return document.Document{}, fmt.Errorf("parse metadata for %q: %w", ref, err)
		}
	}

	return document.Reconstruct(ref, text, source, meta), nil
}
