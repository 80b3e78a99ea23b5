package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Record is one resolution attempt. ResolvedURI is empty when the term was
// left unresolved.
type Record struct {
	DocumentLabel string `json:"documentLabel" yaml:"documentlabel" parquet:"documentLabel"`
	QueriedTerm   string `json:"queriedTerm" yaml:"queriedterm" parquet:"queriedTerm"`
	MatchCount    int    `json:"matchCount" yaml:"matchcount" parquet:"matchCount"`
	ResolvedURI   string `json:"resolvedURI,omitempty" yaml:"resolveduri,omitempty" parquet:"resolvedURI"`
	Domain        string `json:"domain" yaml:"domain" parquet:"domain"`
	Method        string `json:"method" yaml:"method" parquet:"method"`
	RunID         string `json:"runID,omitempty" yaml:"runid,omitempty" parquet:"runID"`
}

// Resolved reports whether the attempt produced an identifier
func (r Record) Resolved() bool {
	return r.ResolvedURI != ""
}

// Header is the column order of CSV audit files
var Header = []string{"documentLabel", "queriedTerm", "matchCount", "resolvedURI", "domain", "method", "runID"}

// WriteFile writes records to path, choosing CSV or Parquet by extension
func WriteFile(path string, records []Record) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".parquet" {
		return fmt.Errorf("unsupported audit format: %s (supported: .csv, .parquet)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audit file: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".parquet":
		err = WriteParquet(f, records)
	default:
		err = WriteCSV(f, records)
	}
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audit file: %w", err)
	}

	slog.Debug("Wrote audit trail", "path", path, "records", len(records))
	return nil
}

// ReadFile loads an audit trail written by WriteFile
func ReadFile(path string) ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return readParquetFile(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported audit format: %s (supported: .csv, .parquet)", ext)
	}
}
