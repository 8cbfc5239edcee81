package sections

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/jask/menutree/internal/menu"
)

// DefaultSeries is used when a catalog does not name its default.
const DefaultSeries = "default"

// Entry is one template of a series.
type Entry struct {
	Title   string
	Payload any
}

// TemplateRef is the payload of entries loaded from a catalog file.
type TemplateRef struct {
	Series string `json:"series"`
	Title  string `json:"title"`
	File   string `json:"file"`
}

// Catalog maps series keys to their template entries.
type Catalog struct {
	DefaultKey string
	Series     map[string][]Entry
}

// Resolve returns the entries for key. A key without entries falls back to
// the default series; fellBack reports that it did.
func (c Catalog) Resolve(key string) (resolved string, entries []Entry, fellBack bool) {
	if es := c.Series[key]; len(es) > 0 {
		return key, es, false
	}
	def := c.defaultKey()
	return def, c.Series[def], true
}

func (c Catalog) defaultKey() string {
	if c.DefaultKey == "" {
		return DefaultSeries
	}
	return c.DefaultKey
}

// Keys returns the series keys, sorted.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Series))
	for k := range c.Series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Nearest returns the series key closest to key by edit distance.
func (c Catalog) Nearest(key string) (string, bool) {
	best, bestDist := "", -1
	for _, k := range c.Keys() {
		d := levenshtein.ComputeDistance(key, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(key)/2) {
		return "", false
	}
	return best, true
}

// RebuildTemplateGallery returns the gallery section for seriesKey.
func RebuildTemplateGallery(seriesKey string, c Catalog) (nodes []menu.Node, resolved string, fellBack bool) {
	resolved, entries, fellBack := c.Resolve(seriesKey)
	nodes = make([]menu.Node, 0, len(entries))
	for i, e := range entries {
		node := menu.Item(fmt.Sprintf("template-%d", i), "", ActionOpenTemplate)
		node.Label = e.Title
		node.Action.Payload = e.Payload
		nodes = append(nodes, node)
	}
	return nodes, resolved, fellBack
}
