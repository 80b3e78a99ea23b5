package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes a header row followed by one row per record
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.DocumentLabel,
			r.QueriedTerm,
			strconv.Itoa(r.MatchCount),
			r.ResolvedURI,
			r.Domain,
			r.Method,
			r.RunID,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a trail written by WriteCSV. Columns are matched by header
// name so files with only the four core columns are accepted.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, required := range Header[:4] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv audit is missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		count := 0
		if s := field(row, "matchCount"); s != "" {
			count, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("invalid matchCount on line %d: %w", line, err)
			}
		}
		records = append(records, Record{
			DocumentLabel: field(row, "documentLabel"),
			QueriedTerm:   field(row, "queriedTerm"),
			MatchCount:    count,
			ResolvedURI:   field(row, "resolvedURI"),
			Domain:        field(row, "domain"),
			Method:        field(row, "method"),
			RunID:         field(row, "runID"),
		})
	}
	return records, nil
}
