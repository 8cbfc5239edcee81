package sections

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrEmptyCatalog indicates a catalog file without any series.
var ErrEmptyCatalog = errors.New("catalog has no series")

type catalogFile struct {
	Default string                    `toml:"default"`
	Series  map[string][]catalogEntry `toml:"series"`
}

type catalogEntry struct {
	Title string `toml:"title"`
	File  string `toml:"file"`
}

// DecodeCatalog reads a TOML catalog:
//
//	default = "laser"
//
//	[[series.laser]]
//	title = "Coaster"
//	file  = "templates/coaster.lbrn"
func DecodeCatalog(r io.Reader) (Catalog, error) {
	var f catalogFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Catalog{}, fmt.Errorf("decode catalog: unknown key %q", undecoded[0].String())
	}
	if len(f.Series) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	c := Catalog{
		DefaultKey: strings.TrimSpace(f.Default),
		Series:     make(map[string][]Entry, len(f.Series)),
	}
	for key, entries := range f.Series {
		out := make([]Entry, 0, len(entries))
		for _, e := range entries {
			title := strings.TrimSpace(e.Title)
			if title == "" {
				title = e.File
			}
			out = append(out, Entry{
				Title:   title,
				Payload: TemplateRef{Series: key, Title: title, File: e.File},
			})
		}
		c.Series[key] = out
	}
	if _, ok := c.Series[c.defaultKey()]; !ok {
		return Catalog{}, fmt.Errorf("decode catalog: default series %q not defined", c.defaultKey())
	}
	return c, nil
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return DecodeCatalog(f)
}
