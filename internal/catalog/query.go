package catalog

import (
	"net/url"
	"strings"

	"mspro-labs/bean-scout/internal/db"
)

// ListPath is where the catalog list is served.
const ListPath = "/coffee/list"

// Criteria is the user's current nation and note selection.
type Criteria struct {
	Nations []string `json:"nations"`
	Notes   []string `json:"notes"`
}

// ParseCriteria splits comma-separated query values. Empty items are dropped.
func ParseCriteria(nation, note string) Criteria {
	return Criteria{
		Nations: splitList(nation),
		Notes:   splitList(note),
	}
}

// BuildListURL renders c as a list URL. An empty selection yields the bare path.
func BuildListURL(c Criteria) string {
	params := url.Values{}
	if len(c.Nations) > 0 {
		params.Set("nation", strings.Join(c.Nations, ","))
	}
	if len(c.Notes) > 0 {
		params.Set("note", strings.Join(c.Notes, ","))
	}
	if qs := params.Encode(); qs != "" {
		return ListPath + "?" + qs
	}
	return ListPath
}

func (c Criteria) filter() db.Filter {
	return db.Filter{Nations: c.Nations, Notes: c.Notes}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
