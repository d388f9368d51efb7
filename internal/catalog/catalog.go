// Package catalog holds the two-level issue taxonomy that constrains which
// sub-issue types are valid for each issue type.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Category is a top-level issue type and its allowed sub-issue types.
type Category struct {
	Name          string   `yaml:"name"`
	SubIssueTypes []string `yaml:"subIssueTypes"`
}

// Validate checks that the category has a name and at least one unique sub-issue type.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if len(c.SubIssueTypes) == 0 {
		return fmt.Errorf("category %q has no sub-issue types", c.Name)
	}
	seen := make(map[string]struct{}, len(c.SubIssueTypes))
	for _, sub := range c.SubIssueTypes {
		if strings.TrimSpace(sub) == "" {
			return fmt.Errorf("category %q has an empty sub-issue type", c.Name)
		}
		if _, dup := seen[sub]; dup {
			return fmt.Errorf("category %q lists sub-issue type %q twice", c.Name, sub)
		}
		seen[sub] = struct{}{}
	}
	return nil
}

// Catalog is an ordered, read-only issue taxonomy.
type Catalog struct {
	categories []Category
	index      map[string]int
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// New builds a catalog from the given categories, preserving their order.
func New(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("catalog must define at least one category")
	}

	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	for _, category := range categories {
		if err := category.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[category.Name]; dup {
			return nil, fmt.Errorf("category %q is defined twice", category.Name)
		}
		c.index[category.Name] = len(c.categories)
		c.categories = append(c.categories, Category{
			Name:          category.Name,
			SubIssueTypes: append([]string(nil), category.SubIssueTypes...),
		})
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(doc.Categories)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in Billing/Technical/Account taxonomy.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// IssueTypes returns the top-level issue types in display order.
func (c *Catalog) IssueTypes() []string {
	out := make([]string, 0, len(c.categories))
	for _, category := range c.categories {
		out = append(out, category.Name)
	}
	return out
}

// SubIssueTypes returns the sub-issue types allowed for issueType, or nil
// when the issue type is unknown.
func (c *Catalog) SubIssueTypes(issueType string) []string {
	i, ok := c.index[issueType]
	if !ok {
		return nil
	}
	return append([]string(nil), c.categories[i].SubIssueTypes...)
}

// HasIssueType reports whether issueType is a known category.
func (c *Catalog) HasIssueType(issueType string) bool {
	_, ok := c.index[issueType]
	return ok
}

// Allows reports whether subIssueType belongs to issueType.
func (c *Catalog) Allows(issueType, subIssueType string) bool {
	i, ok := c.index[issueType]
	if !ok {
		return false
	}
	for _, sub := range c.categories[i].SubIssueTypes {
		if sub == subIssueType {
			return true
		}
	}
	return false
}

// Categories returns a copy of the categories in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for _, category := range c.categories {
		out = append(out, Category{
			Name:          category.Name,
			SubIssueTypes: append([]string(nil), category.SubIssueTypes...),
		})
	}
	return out
}
