package annotate

import (
	"strings"

	"github.com/lehigh-university-libraries/mods-enricher/internal/mods"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

const headingSeparator = "--"

// partDomains maps subject sub-parts to the vocabulary they resolve against
var partDomains = map[string]vocabulary.Domain{
	"topic":      vocabulary.Subject,
	"geographic": vocabulary.Place,
	"genre":      vocabulary.Genre,
}

// compoundHeading joins the normalized subject components with "--". Names
// contribute their parts. A heading made only of names is not a compound.
func compoundHeading(components []mods.Component) (string, bool) {
	var (
		parts    []string
		nonNames int
	)
	for _, c := range components {
		text := c.Text()
		if c.IsName() {
			text = nameSubjectQuery(c.NameParts)
		} else {
			nonNames++
		}
		if key := vocabulary.Normalize(text); key != "" {
			parts = append(parts, key)
		}
	}
	if nonNames == 0 || len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, headingSeparator), true
}

// nameSubjectQuery orders name parts the way LC name headings read: with
// three parts the second comes first.
func nameSubjectQuery(parts []string) string {
	norm := make([]string, 0, len(parts))
	for _, p := range parts {
		if key := vocabulary.Normalize(p); key != "" {
			norm = append(norm, key)
		}
	}

	switch {
	case len(norm) >= 3:
		return strings.Join([]string{norm[1], norm[0], norm[2]}, ", ")
	case len(norm) == 2:
		return norm[0] + ", " + norm[1]
	case len(norm) == 1:
		return norm[0]
	default:
		return ""
	}
}

// nameQuery prefers the display form, then the first two name parts.
// Parentheses are removed since the name service rejects them.
func nameQuery(displayForm string, parts []string) string {
	parts = nonBlank(parts)
	var q string
	switch {
	case strings.TrimSpace(displayForm) != "":
		q = displayForm
	case len(parts) >= 2:
		q = parts[0] + ", " + parts[1]
	case len(parts) == 1:
		q = parts[0]
	}
	q = strings.NewReplacer("(", "", ")", "").Replace(q)
	return strings.TrimSpace(q)
}

// nonBlank drops parts with no text; a blank namePart counts as missing
func nonBlank(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
