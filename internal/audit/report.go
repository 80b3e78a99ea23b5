package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report is the serialized form of a summarized trail
type Report struct {
	Summary *Summary `json:"summary" yaml:"summary"`
	Records []Record `json:"records" yaml:"records"`
}

// Render writes records in one of text, json, csv or yaml
func Render(w io.Writer, format string, records []Record) error {
	report := Report{Summary: Summarize(records), Records: records}

	switch format {
	case "text":
		return renderText(w, report)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "csv":
		return WriteCSV(w, records)
	case "yaml":
		data, err := yaml.Marshal(&report)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func renderText(w io.Writer, report Report) error {
	s := report.Summary
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format, args...)
	}

	p("%s\n", strings.Repeat("=", 70))
	p("AUTHORITY RESOLUTION REPORT\n")
	p("%s\n", strings.Repeat("=", 70))
	p("Documents:       %d\n", s.Documents)
	p("Attempts:        %d\n", s.Attempts)
	p("Resolved:        %d (%.1f%%)\n", s.Resolved, s.ResolutionRate*100)
	p("Ambiguous:       %d\n", s.Ambiguous)
	p("No match:        %d\n", s.NoMatch)
	p("Remote lookups:  %d\n", s.RemoteLookups)
	p("\n")

	p("BY DOMAIN\n")
	p("%s\n", strings.Repeat("-", 70))
	p("%-14s %9s %9s %10s %9s %8s\n", "domain", "attempts", "resolved", "ambiguous", "no match", "rate")
	for _, name := range s.Domains() {
		d := s.ByDomain[name]
		p("%-14s %9d %9d %10d %9d %7.1f%%\n", name, d.Attempts, d.Resolved, d.Ambiguous, d.NoMatch, d.ResolutionRate*100)
	}
	p("\n")

	var unresolved []Record
	for _, r := range report.Records {
		if !r.Resolved() {
			unresolved = append(unresolved, r)
		}
	}
	if len(unresolved) == 0 {
		p("All attempted terms were resolved.\n")
		return nil
	}

	p("UNRESOLVED TERMS\n")
	p("%s\n", strings.Repeat("-", 70))
	for _, r := range unresolved {
		p("  [%s] %s: %q (%d matches)\n", r.Domain, r.DocumentLabel, truncate(r.QueriedTerm, 60), r.MatchCount)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
