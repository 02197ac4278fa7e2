package inventory

import (
	"strings"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// CategoryRule maps a set of title keywords to a category. Rules are
// evaluated in order and the first rule with a matching keyword wins.
type CategoryRule struct {
	Category string   `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// DefaultCategoryRules is the built-in keyword table. Clothing is checked
// before footwear.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: domain.CategoryClothing,
			Keywords: []string{"shirt", "tee", "hoodie", "jacket", "pant", "jean"},
		},
		{
			Category: domain.CategoryShoes,
			Keywords: []string{"shoe", "sneaker", "boot", "sandal", "heel"},
		},
	}
}

// Classifier infers a category from a free-text product title. It is a
// best-effort heuristic, not a lookup against vendor category data.
type Classifier struct {
	rules    []CategoryRule
	fallback string
}

// NewClassifier builds a classifier from rules. Keywords are matched as
// case-insensitive substrings. Nil rules select DefaultCategoryRules; an
// empty fallback selects "accessories".
func NewClassifier(rules []CategoryRule, fallback string) *Classifier {
	if rules == nil {
		rules = DefaultCategoryRules()
	}
	if fallback == "" {
		fallback = domain.CategoryAccessories
	}

	c := &Classifier{
		rules:    make([]CategoryRule, 0, len(rules)),
		fallback: fallback,
	}
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		c.rules = append(c.rules, CategoryRule{Category: r.Category, Keywords: kw})
	}
	return c
}

// Classify returns the category for title.
func (c *Classifier) Classify(title string) string {
	lower := strings.ToLower(title)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r.Category
			}
		}
	}
	return c.fallback
}
