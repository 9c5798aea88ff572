// Package export writes search results and stored leads to CSV and XLSX.
// CSV output targets French Excel conventions: UTF-8 byte-order mark and
// semicolon delimiter.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// utf8BOM makes Excel detect UTF-8 instead of falling back to Latin-1.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes rows as semicolon-delimited CSV with a UTF-8 BOM. Column
// order follows the struct's csv tags.
func WriteCSV[T any](w io.Writer, rows []T) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return eris.Wrap(err, "export: write BOM")
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		// The header row is written even when there is nothing to export.
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return eris.Wrap(err, "export: encode csv header")
		}
	} else if err := enc.Encode(rows); err != nil {
		return eris.Wrap(err, "export: encode csv")
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFile writes rows to path, creating parent directories as needed.
func WriteCSVFile[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}

	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "export: close csv file")
}
