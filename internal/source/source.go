package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Source is one document to enrich
type Source struct {
	Location string `json:"location"`
	Label    string `json:"label"`
}

// Loader finds and reads source documents from local paths, glob patterns
// and http(s) URLs
type Loader struct {
	httpClient *http.Client
}

// NewLoader creates a loader. A nil client gets a 60 second timeout.
func NewLoader(c *http.Client) *Loader {
	if c == nil {
		c = &http.Client{Timeout: 60 * time.Second}
	}
	return &Loader{httpClient: c}
}

// Expand turns command line inputs into sources. Inputs may be URLs, XML
// files, directories (searched recursively for *.xml), doublestar patterns,
// or list files: .txt with one location per line, or .json holding a
// "urlList" array.
func (l *Loader) Expand(inputs []string) ([]Source, error) {
	var out []Source
	seen := make(map[string]struct{})
	add := func(loc string) {
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		out = append(out, Source{Location: loc, Label: Label(loc)})
	}

	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		locs, err := expandOne(in)
		if err != nil {
			return nil, err
		}
		for _, loc := range locs {
			add(loc)
		}
	}

	disambiguate(out)
	slog.Debug("Expanded sources", "inputs", len(inputs), "sources", len(out))
	return out, nil
}

// disambiguate keeps labels unique so two documents never share an output
// file. Colliding labels are prefixed with their parent directory, then
// numbered if that still collides.
func disambiguate(sources []Source) {
	count := make(map[string]int, len(sources))
	for _, s := range sources {
		count[s.Label]++
	}

	used := make(map[string]bool, len(sources))
	for i := range sources {
		label := sources[i].Label
		if count[label] > 1 {
			if parent := path.Base(path.Dir(locationPath(sources[i].Location))); parent != "." && parent != "/" && parent != label {
				label = parent + "_" + label
			}
		}
		base := label
		for n := 2; used[label]; n++ {
			label = fmt.Sprintf("%s-%d", base, n)
		}
		used[label] = true

		if label != sources[i].Label {
			slog.Warn("Renamed duplicate document label", "location", sources[i].Location, "label", sources[i].Label, "renamed", label)
			sources[i].Label = label
		}
	}
}

func expandOne(in string) ([]string, error) {
	if isURL(in) {
		return []string{in}, nil
	}

	if hasMeta(in) {
		matches, err := doublestar.FilepathGlob(in, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", in, err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(in)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if info.IsDir() {
		pattern := filepath.Join(in, "**", "*.xml")
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to list directory %s: %w", in, err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	switch strings.ToLower(filepath.Ext(in)) {
	case ".txt":
		return readTextList(in)
	case ".json":
		return readJSONList(in)
	default:
		return []string{in}, nil
	}
}

func readTextList(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open source list: %w", err)
	}
	defer f.Close()

	var locs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		locs = append(locs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading source list: %w", err)
	}
	return locs, nil
}

func readJSONList(p string) ([]string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}
	var list struct {
		URLList []string `json:"urlList"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse source list %s: %w", p, err)
	}
	return list.URLList, nil
}

// Load reads the raw bytes of a source
func (l *Loader) Load(ctx context.Context, s Source) ([]byte, error) {
	if !isURL(s.Location) {
		data, err := os.ReadFile(s.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.Location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.Location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.Location, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Location, err)
	}
	return data, nil
}

// Label derives a document label from its location: the last path segment
// without its .xml extension. HABVols URLs name the volume in the parent
// segment instead.
func Label(location string) string {
	p := locationPath(location)

	if strings.Contains(location, "HABVols") {
		if parent := path.Base(path.Dir(p)); parent != "." && parent != "/" {
			return parent
		}
	}
	base := path.Base(p)
	if i := strings.Index(base, ".xml"); i >= 0 {
		base = base[:i]
	}
	return base
}

// locationPath is the slash-separated path part of a file path or URL
func locationPath(location string) string {
	p := filepath.ToSlash(location)
	if isURL(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	return strings.TrimRight(p, "/")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
