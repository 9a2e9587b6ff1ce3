package news

import "github.com/vladvlasov256/YourDutchBot/internal/lesson"

// DefaultCatalog is the built-in topic catalog, overridable from
// configuration.
var DefaultCatalog = []lesson.TopicQuery{
	{ID: "netherlands", Query: "Netherlands", Label: "Netherlands"},
	{ID: "software", Query: "software development programming", Label: "Software"},
	{ID: "startups", Query: "startups venture capital", Label: "Startups"},
	{ID: "sports", Query: "football eredivisie", Label: "Football"},
}

// CatalogEntry is the configurable form of one catalog topic.
type CatalogEntry struct {
	ID    string `yaml:"id"`
	Query string `yaml:"query"`
	Label string `yaml:"label"`
}

// Catalog converts configured entries into the lesson catalog, falling
// back to the built-in list when nothing is configured.
func Catalog(entries []CatalogEntry) []lesson.TopicQuery {
	if len(entries) == 0 {
		return DefaultCatalog
	}
	out := make([]lesson.TopicQuery, 0, len(entries))
	for _, e := range entries {
		if e.Query == "" {
			continue
		}
		label := e.Label
		if label == "" {
			label = e.Query
		}
		id := e.ID
		if id == "" {
			id = e.Query
		}
		out = append(out, lesson.TopicQuery{ID: id, Query: e.Query, Label: label})
	}
	if len(out) == 0 {
		return DefaultCatalog
	}
	return out
}
