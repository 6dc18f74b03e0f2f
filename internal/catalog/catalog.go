package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("catalog has no categories")

// Category is a main news category and the search keywords under it
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"sub_categories"`
}

// Catalog lists the accepted publishers and the followed categories
type Catalog struct {
	SourceList   []string   `yaml:"sources"`
	CategoryList []Category `yaml:"categories"`

	sources map[string]struct{}
	index   map[string]int
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.CategoryList) == 0 {
		return nil, ErrEmptyCatalog
	}

	c.sources = make(map[string]struct{}, len(c.SourceList))
	for _, s := range c.SourceList {
		c.sources[normalize(s)] = struct{}{}
	}
	c.index = make(map[string]int, len(c.CategoryList))
	for i, cat := range c.CategoryList {
		if cat.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if _, dup := c.index[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		c.index[cat.Name] = i
	}
	return &c, nil
}

// Categories returns the main category names in document order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.CategoryList))
	for i, cat := range c.CategoryList {
		names[i] = cat.Name
	}
	return names
}

// SubCategories returns the keywords of a main category.
func (c *Catalog) SubCategories(main string) []string {
	i, ok := c.index[main]
	if !ok {
		return nil
	}
	return append([]string(nil), c.CategoryList[i].Keywords...)
}

func (c *Catalog) HasCategory(main string) bool {
	_, ok := c.index[main]
	return ok
}

// IsAllowedSource reports whether name is an accepted publisher.
// An empty source list accepts everything.
func (c *Catalog) IsAllowedSource(name string) bool {
	if len(c.sources) == 0 {
		return true
	}
	_, ok := c.sources[normalize(name)]
	return ok
}

func (c *Catalog) Sources() []string {
	return append([]string(nil), c.SourceList...)
}

// Restrict returns a copy that only accepts the given publishers.
func (c *Catalog) Restrict(sources []string) *Catalog {
	if len(sources) == 0 {
		return c
	}
	out := *c
	out.SourceList = append([]string(nil), sources...)
	out.sources = make(map[string]struct{}, len(sources))
	for _, s := range sources {
		out.sources[normalize(s)] = struct{}{}
	}
	return &out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
