package vocabulary

const (
	LCAuthority   = "http://id.loc.gov/"
	LCRecordBase  = "http://id.loc.gov"
	VIAFAuthority = "http://viaf.org"
	VIAFRecord    = "http://viaf.org/viaf/"

	lcSearch = "http://id.loc.gov/search/?q=scheme:"
)

// Defaults returns the built-in vocabularies, including the starter
// dictionaries curated for the emblem-book collection.
func Defaults() []Definition {
	return []Definition{
		{
			Domain:       Role,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/vocabulary/relators/",
			QueryURL:     lcSearch + "http://id.loc.gov/vocabulary/relators&q=aLabel:",
			RecordBase:   LCRecordBase,
			Shape:        ScrapedTable,
			Dictionary: map[string]string{
				"creator":      "http://id.loc.gov/vocabulary/relators/cre",
				"illustrator":  "http://id.loc.gov/vocabulary/relators/ill",
				"collaborator": "http://id.loc.gov/vocabulary/relators/ctb",
				"clb":          "http://id.loc.gov/vocabulary/relators/ctb",
				"engr":         "http://id.loc.gov/vocabulary/relators/egr",
			},
		},
		{
			Domain:       Subject,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/authorities/subjects/",
			QueryURL:     lcSearch + "http://id.loc.gov/authorities/subjects&q=aLabel:",
			RecordBase:   LCRecordBase,
			Shape:        ScrapedTable,
			Dictionary: map[string]string{
				"emblems":             "http://id.loc.gov/authorities/subjects/sh85042693",
				"emblem books, latin": "http://id.loc.gov/authorities/subjects/sh2004006698",
			},
		},
		{
			Domain:       Place,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/vocabulary/geographicAreas/",
			QueryURL:     lcSearch + "http://id.loc.gov/vocabulary/geographicAreas&q=aLabel:",
			RecordBase:   LCRecordBase,
			Shape:        ScrapedTable,
			Dictionary: map[string]string{
				"poland": "http://id.loc.gov/vocabulary/geographicAreas/e-pl",
			},
		},
		{
			Domain:       NameSubject,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/authorities/names/",
			QueryURL:     lcSearch + "http://id.loc.gov/authorities/names&q=aLabel:",
			RecordBase:   LCRecordBase,
			Shape:        ScrapedTable,
			Dictionary: map[string]string{
				"caesar,julius": "http://id.loc.gov/authorities/names/n79021400",
				"charles, vi, holy roman emperor, 1685-1740": "http://id.loc.gov/authorities/names/n84000727",
				"leopold, archduke of austria, 1716-1716":    "http://id.loc.gov/authorities/names/no2001061965",
			},
		},
		{
			Domain:       Genre,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/authorities/genreForms/",
			QueryURL:     lcSearch + "http://id.loc.gov/authorities/genreForms&q=aLabel:",
			RecordBase:   LCRecordBase,
			Shape:        ScrapedTable,
			Dictionary: map[string]string{
				"poetry": "http://id.loc.gov/authorities/genreForms/gf2014026481",
			},
		},
		{
			Domain:       Name,
			AuthorityURI: VIAFAuthority,
			QueryURL:     "http://www.viaf.org/viaf/AutoSuggest?query=",
			RecordBase:   VIAFRecord,
			Shape:        StructuredJSON,
		},
		{
			Domain:       Language,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/vocabulary/",
			Shape:        Code,
		},
		{
			Domain:       Country,
			AuthorityURI: LCAuthority,
			BasePath:     "http://id.loc.gov/vocabulary/countries/",
			QueryURL:     lcSearch + "http://id.loc.gov/vocabulary/countries&q=aLabel:",
			Shape:        Code,
		},
	}
}

// DefaultRegistry builds a registry from Defaults
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(err)
	}
	return r
}
