// Package export writes fetched dashboard data to files, as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/statviz/dashkit/dataservice"
)

// WriteSeriesCSV writes metric series as CSV rows of
// series,unit,timestamp,value. Timestamps are RFC 3339.
func WriteSeriesCSV(w io.Writer, series ...*dataservice.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"series", "unit", "timestamp", "value"}); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, s := range series {
		for _, p := range s.Points {
			row := []string{
				s.Name,
				s.Unit,
				p.Timestamp.Format(time.RFC3339),
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// SeriesFile writes series to path, choosing the format by extension:
// .csv or .json.
func SeriesFile(path string, series ...*dataservice.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch ext := filepath.Ext(path); ext {
	case ".csv":
		return WriteSeriesCSV(f, series...)
	case ".json":
		return WriteJSON(f, series)
	default:
		return fmt.Errorf("export: unsupported extension %q", ext)
	}
}
