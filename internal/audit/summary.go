package audit

import "sort"

// Summary aggregates an audit trail
type Summary struct {
	Documents     int `json:"documents" yaml:"documents"`
	Attempts      int `json:"attempts" yaml:"attempts"`
	Resolved      int `json:"resolved" yaml:"resolved"`
	Ambiguous     int `json:"ambiguous" yaml:"ambiguous"`
	NoMatch       int `json:"noMatch" yaml:"nomatch"`
	RemoteLookups int `json:"remoteLookups" yaml:"remotelookups"`

	ResolutionRate float64 `json:"resolutionRate" yaml:"resolutionrate"`

	ByDomain map[string]*DomainStats `json:"byDomain" yaml:"bydomain"`
	ByMethod map[string]int          `json:"byMethod" yaml:"bymethod"`
}

// DomainStats holds per-vocabulary counts
type DomainStats struct {
	Attempts       int     `json:"attempts" yaml:"attempts"`
	Resolved       int     `json:"resolved" yaml:"resolved"`
	Ambiguous      int     `json:"ambiguous" yaml:"ambiguous"`
	NoMatch        int     `json:"noMatch" yaml:"nomatch"`
	ResolutionRate float64 `json:"resolutionRate" yaml:"resolutionrate"`
}

// Summarize counts outcomes overall, by domain and by method. An unresolved
// record with more than one match is ambiguous; with none it is a no-match.
func Summarize(records []Record) *Summary {
	s := &Summary{
		ByDomain: make(map[string]*DomainStats),
		ByMethod: make(map[string]int),
	}

	docs := make(map[string]struct{})
	for _, r := range records {
		docs[r.DocumentLabel] = struct{}{}
		s.Attempts++
		s.ByMethod[r.Method]++
		if r.Method == "remote" {
			s.RemoteLookups++
		}

		d, ok := s.ByDomain[r.Domain]
		if !ok {
			d = &DomainStats{}
			s.ByDomain[r.Domain] = d
		}
		d.Attempts++

		switch {
		case r.Resolved():
			s.Resolved++
			d.Resolved++
		case r.MatchCount > 1:
			s.Ambiguous++
			d.Ambiguous++
		default:
			s.NoMatch++
			d.NoMatch++
		}
	}

	s.Documents = len(docs)
	s.ResolutionRate = rate(s.Resolved, s.Attempts)
	for _, d := range s.ByDomain {
		d.ResolutionRate = rate(d.Resolved, d.Attempts)
	}
	return s
}

// Domains lists the summarized domains in a stable order
func (s *Summary) Domains() []string {
	out := make([]string, 0, len(s.ByDomain))
	for d := range s.ByDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
