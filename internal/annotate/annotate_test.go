package annotate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/mods-enricher/internal/authority"
	"github.com/lehigh-university-libraries/mods-enricher/internal/fetch"
	"github.com/lehigh-university-libraries/mods-enricher/internal/mods"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

const emblemBook = `<?xml version="1.0" encoding="UTF-8"?>
<e:biblioDesc xmlns:e="http://diglib.hab.de/rules/schema/emblem" xmlns:m="http://www.loc.gov/mods/v3">
  <m:mods>
    <m:language><m:languageTerm type="code" authority="iso639-2b">lat</m:languageTerm></m:language>
    <m:originInfo><m:place><m:placeTerm type="code" authority="marccountry">gw</m:placeTerm></m:place></m:originInfo>
    <m:subject authority="lcsh"><m:topic>Emblems</m:topic><m:geographic>Poland</m:geographic></m:subject>
    <m:subject authority="lcsh"><m:name type="personal"><m:namePart>Caesar</m:namePart><m:namePart>Julius</m:namePart></m:name></m:subject>
    <m:name type="personal">
      <m:namePart>Alciati, Andrea</m:namePart>
      <m:namePart type="date">1492-1550</m:namePart>
      <m:displayForm>Alciati, Andrea (1492-1550)</m:displayForm>
      <m:role><m:roleTerm type="text">creator</m:roleTerm></m:role>
      <m:role><m:roleTerm type="code" valueURI="http://id.loc.gov/vocabulary/relators/aut">aut</m:roleTerm></m:role>
    </m:name>
  </m:mods>
</e:biblioDesc>`

// fakeServices stands in for id.loc.gov and VIAF, answering every query
// with a single match
type fakeServices struct {
	lc, viaf         *httptest.Server
	lcHits, viafHits atomic.Int32
	viafBody         string
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()
	fs := &fakeServices{
		viafBody: `{"query":"q","result":[{"displayForm":"Alciato, Andrea, 1492-1550","nametype":"personal","viafid":"100219162"}]}`,
	}
	fs.lc = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.lcHits.Add(1)
		label := strings.Trim(strings.TrimPrefix(r.URL.Query()["q"][1], "aLabel:"), `"`)
		fmt.Fprintf(w, `<html><body><table class="id-std"><tbody class="tbody-group">
<tr><td><a title="Click to view record" href="/authorities/found/%s">%s</a></td></tr>
</tbody></table></body></html>`, strings.ReplaceAll(label, " ", "_"), label)
	}))
	fs.viaf = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.viafHits.Add(1)
		_, _ = w.Write([]byte(fs.viafBody))
	}))
	t.Cleanup(fs.lc.Close)
	t.Cleanup(fs.viaf.Close)
	return fs
}

func (fs *fakeServices) annotator(t *testing.T) *Annotator {
	t.Helper()
	defs := vocabulary.Defaults()
	for i := range defs {
		defs[i].QueryURL = strings.Replace(defs[i].QueryURL, "http://id.loc.gov", fs.lc.URL, 1)
		defs[i].QueryURL = strings.Replace(defs[i].QueryURL, "http://www.viaf.org", fs.viaf.URL, 1)
	}
	reg, err := vocabulary.NewRegistry(defs...)
	require.NoError(t, err)

	f := fetch.New(fetch.WithNameAuthorityHosts(strings.TrimPrefix(fs.viaf.URL, "http://")))
	return New(authority.New(reg, f))
}

func (fs *fakeServices) hits() int32 {
	return fs.lcHits.Load() + fs.viafHits.Load()
}

func TestAnnotateFullPass(t *testing.T) {
	fs := newFakeServices(t)
	a := fs.annotator(t)

	doc, err := mods.Parse([]byte(emblemBook))
	require.NoError(t, err)

	trail, err := a.Annotate(context.Background(), doc, "alciato1531")
	require.NoError(t, err)

	type row struct {
		domain, query, uri string
	}
	var got []row
	for _, r := range trail {
		assert.Equal(t, "alciato1531", r.DocumentLabel)
		got = append(got, row{r.Domain, r.QueriedTerm, r.ResolvedURI})
	}
	assert.Equal(t, []row{
		{"language", "lat", "http://id.loc.gov/vocabulary/iso639-2/lat"},
		{"country", "gw", "http://id.loc.gov/vocabulary/countries/gw"},
		{"subject", "emblems--poland", "http://id.loc.gov/authorities/found/emblems--poland"},
		{"subject", "emblems", "http://id.loc.gov/authorities/subjects/sh85042693"},
		{"place", "poland", "http://id.loc.gov/vocabulary/geographicAreas/e-pl"},
		{"name-subject", "caesar, julius", "http://id.loc.gov/authorities/found/caesar,_julius"},
		{"name", "alciati, andrea 1492-1550", "http://viaf.org/viaf/100219162"},
		{"role", "creator", "http://id.loc.gov/vocabulary/relators/cre"},
	}, got)
	assert.EqualValues(t, 2, fs.lcHits.Load())
	assert.EqualValues(t, 1, fs.viafHits.Load())

	out, err := doc.Bytes()
	require.NoError(t, err)
	xml := string(out)
	assert.Contains(t, xml, `<m:name type="personal" authorityURI="http://viaf.org" valueURI="http://viaf.org/viaf/100219162">`)
	assert.Contains(t, xml, `<m:displayForm>Alciato, Andrea, 1492-1550</m:displayForm>`)
	assert.Contains(t, xml, `<m:subject authority="lcsh" authorityURI="http://id.loc.gov/" valueURI="http://id.loc.gov/authorities/found/caesar,_julius">`)
	assert.Contains(t, xml, `valueURI="http://id.loc.gov/vocabulary/relators/aut">aut</m:roleTerm>`)
}

func TestAnnotateIsIdempotent(t *testing.T) {
	fs := newFakeServices(t)
	a := fs.annotator(t)

	doc, err := mods.Parse([]byte(emblemBook))
	require.NoError(t, err)
	_, err = a.Annotate(context.Background(), doc, "book")
	require.NoError(t, err)
	first, err := doc.Bytes()
	require.NoError(t, err)
	hitsAfterFirst := fs.hits()

	trail, err := a.Annotate(context.Background(), doc, "book")
	require.NoError(t, err)
	second, err := doc.Bytes()
	require.NoError(t, err)

	assert.Empty(t, trail)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, hitsAfterFirst, fs.hits())
}

func TestAnnotateKeepsExistingNameIdentifier(t *testing.T) {
	fs := newFakeServices(t)
	a := fs.annotator(t)

	input := `<mods xmlns="http://www.loc.gov/mods/v3">
  <name valueURI="http://viaf.org/viaf/999" authorityURI="http://viaf.org">
    <namePart>Whitney, Geffrey</namePart>
    <displayForm>Whitney, Geffrey, 1548?-1601?</displayForm>
    <role><roleTerm type="text">creator</roleTerm></role>
  </name>
</mods>`
	doc, err := mods.Parse([]byte(input))
	require.NoError(t, err)

	trail, err := a.Annotate(context.Background(), doc, "whitney")
	require.NoError(t, err)

	assert.Empty(t, trail)
	assert.Zero(t, fs.hits())
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `valueURI="http://viaf.org/viaf/999"`)
	assert.Contains(t, string(out), `<displayForm>Whitney, Geffrey, 1548?-1601?</displayForm>`)
	assert.NotContains(t, string(out), "relators/cre")
}

func TestAnnotateAmbiguousNameLeavesNodeUntouched(t *testing.T) {
	fs := newFakeServices(t)
	fs.viafBody = `{"query":"whitney","result":[
		{"displayForm":"Whitney, Geffrey","nametype":"personal","viafid":"1"},
		{"displayForm":"Whitney, Isabella","nametype":"personal","viafid":"2"}]}`
	a := fs.annotator(t)

	input := `<mods xmlns="http://www.loc.gov/mods/v3"><name><namePart>Whitney</namePart></name></mods>`
	doc, err := mods.Parse([]byte(input))
	require.NoError(t, err)

	trail, err := a.Annotate(context.Background(), doc, "whitney")
	require.NoError(t, err)

	require.Len(t, trail, 1)
	assert.Equal(t, 2, trail[0].MatchCount)
	assert.Empty(t, trail[0].ResolvedURI)
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "valueURI")
	assert.NotContains(t, string(out), "displayForm")
}

// countingResolver resolves nothing and records what it was asked
type countingResolver struct {
	mu    sync.Mutex
	asked []string
}

func (c *countingResolver) Resolve(_ context.Context, d vocabulary.Domain, raw string) authority.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, string(d)+":"+raw)
	return authority.Result{Method: authority.MethodRemote, Query: vocabulary.Normalize(raw)}
}

func TestAnnotateSkipsEmptyAndIdentifiedNodes(t *testing.T) {
	input := `<mods xmlns="http://www.loc.gov/mods/v3">
  <language><languageTerm type="code"> </languageTerm></language>
  <originInfo><place><placeTerm authority="marccountry" valueURI="http://id.loc.gov/vocabulary/countries/it">it</placeTerm></place></originInfo>
  <subject authority="lcsh" valueURI="http://id.loc.gov/authorities/subjects/sh1"><topic>Love</topic><topic>Death</topic></subject>
  <name><role><roleTerm>engraver</roleTerm></role></name>
</mods>`
	doc, err := mods.Parse([]byte(input))
	require.NoError(t, err)

	r := &countingResolver{}
	trail, err := New(r).Annotate(context.Background(), doc, "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"subject:Love", "subject:Death", "role:engraver"}, r.asked)
	assert.Len(t, trail, 3)
}

func TestAnnotateSkipsNamesWithBlankParts(t *testing.T) {
	input := `<mods xmlns="http://www.loc.gov/mods/v3">
  <subject authority="lcsh"><topic>Love</topic><name><namePart/></name></subject>
  <name><namePart/><namePart> </namePart><role><roleTerm>engraver</roleTerm></role></name>
  <name></name>
</mods>`
	doc, err := mods.Parse([]byte(input))
	require.NoError(t, err)

	r := &countingResolver{}
	trail, err := New(r).Annotate(context.Background(), doc, "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"subject:love", "subject:Love", "role:engraver"}, r.asked)
	for _, q := range r.asked {
		assert.NotContains(t, q, "name")
	}
	assert.Len(t, trail, 3)
}

func TestAnnotateSinglePartSubjectSkipsSubParts(t *testing.T) {
	input := `<mods xmlns="http://www.loc.gov/mods/v3"><subject authority="lcsh"><topic>Emblems.</topic></subject></mods>`
	doc, err := mods.Parse([]byte(input))
	require.NoError(t, err)

	r := &countingResolver{}
	_, err = New(r).Annotate(context.Background(), doc, "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"subject:emblems"}, r.asked)
}

func TestAnnotateMalformed(t *testing.T) {
	doc, err := mods.Parse([]byte(`<record/>`))
	require.NoError(t, err)

	_, err = New(&countingResolver{}).Annotate(context.Background(), doc, "x")
	assert.ErrorIs(t, err, mods.ErrMalformedDocument)
}

func TestAnnotateCancelled(t *testing.T) {
	doc, err := mods.Parse([]byte(emblemBook))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(&countingResolver{}).Annotate(ctx, doc, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
