// Package taxonomy holds the two-level folder structure every archive and
// upload conforms to.
package taxonomy

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathSeparator joins a category and a subcategory.
const PathSeparator = "/"

// Category is a top-level folder and its ordered subfolders.
type Category struct {
	Name          string   `json:"name" yaml:"name"`
	Subcategories []string `json:"subcategories" yaml:"subcategories"`
}

// Taxonomy is an immutable, ordered category tree. The legal path list is
// computed once at construction.
type Taxonomy struct {
	categories []Category
	paths      []string
	legal      map[string]struct{}
}

// New validates categories and builds a taxonomy from them.
func New(categories ...Category) (*Taxonomy, error) {
	t := &Taxonomy{legal: make(map[string]struct{})}
	for _, c := range categories {
		if err := validName(c.Name); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if _, dup := t.legal[c.Name]; dup {
			return nil, fmt.Errorf("category %q: duplicate", c.Name)
		}
		t.add(c.Name)

		subs := make([]string, 0, len(c.Subcategories))
		for _, s := range c.Subcategories {
			if err := validName(s); err != nil {
				return nil, fmt.Errorf("subcategory %q of %q: %w", s, c.Name, err)
			}
			p := c.Name + PathSeparator + s
			if _, dup := t.legal[p]; dup {
				return nil, fmt.Errorf("subcategory %q of %q: duplicate", s, c.Name)
			}
			t.add(p)
			subs = append(subs, s)
		}
		t.categories = append(t.categories, Category{Name: c.Name, Subcategories: subs})
	}
	return t, nil
}

// MustNew is New for static taxonomies; it panics on invalid input.
func MustNew(categories ...Category) *Taxonomy {
	t, err := New(categories...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Taxonomy) add(p string) {
	t.paths = append(t.paths, p)
	t.legal[p] = struct{}{}
}

func validName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("empty name")
	case strings.Contains(name, PathSeparator) || strings.Contains(name, "\\"):
		return fmt.Errorf("name must not contain a path separator")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name")
	}
	return nil
}

// LegalPaths enumerates the legal target paths: each category directly
// followed by its category/subcategory paths, in declaration order. The
// returned slice is a fresh copy.
func (t *Taxonomy) LegalPaths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// IsLegalPath reports whether p is one of LegalPaths.
func (t *Taxonomy) IsLegalPath(p string) bool {
	_, ok := t.legal[p]
	return ok
}

// Categories returns a copy of the category tree.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Subcategories: append([]string(nil), c.Subcategories...)}
	}
	return out
}

// Load reads a taxonomy from a YAML file.
func Load(filePath string) (*Taxonomy, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a YAML list of categories. A list is used instead of a mapping
// so declaration order survives decoding.
func Parse(r io.Reader) (*Taxonomy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("parsing taxonomy: no categories")
	}
	return New(categories...)
}
