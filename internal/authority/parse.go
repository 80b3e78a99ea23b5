package authority

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	resultGroupSelector = "table.id-std > tbody.tbody-group"
	resultRowSelector   = "table.id-std > tbody > tr"
	recordLinkSelector  = "td a[title='Click to view record']"
)

// parseResultTable reads an id.loc.gov search page. A single result group is
// a match and yields the first row's record link; anything else reports the
// number of rows seen.
func parseResultTable(body []byte) (href string, rows int, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse results page: %w", err)
	}

	trs := doc.Find(resultRowSelector)
	rows = trs.Length()
	if doc.Find(resultGroupSelector).Length() != 1 {
		return "", rows, nil
	}

	href, ok := trs.First().Find(recordLinkSelector).First().Attr("href")
	if !ok || href == "" {
		return "", rows, nil
	}
	return href, rows, nil
}

type suggestResponse struct {
	Query  string       `json:"query"`
	Result []suggestion `json:"result"`
}

type suggestion struct {
	Term        string `json:"term"`
	DisplayForm string `json:"displayForm"`
	NameType    string `json:"nametype"`
	VIAFID      string `json:"viafid"`
}

func (s suggestion) isAgent() bool {
	return s.NameType == "personal" || s.NameType == "corporate"
}

// parseSuggestions reads a VIAF AutoSuggest body. The match is accepted only
// when exactly one personal or corporate entry is present; total is the count
// of all entries regardless of type.
func parseSuggestions(body []byte) (match *suggestion, total int, err error) {
	var resp suggestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	var agents []suggestion
	for _, s := range resp.Result {
		if s.isAgent() {
			agents = append(agents, s)
		}
	}
	if len(agents) == 1 && agents[0].VIAFID != "" {
		return &agents[0], len(resp.Result), nil
	}
	return nil, len(resp.Result), nil
}
