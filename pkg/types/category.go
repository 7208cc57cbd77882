package types

import "time"

// DefaultCategories are seeded into an empty pantry on first attach.
var DefaultCategories = []string{"Ramen", "Cup Noodles", "Stir-Fry", "Soup"}

// Category groups noodles. Names are unique within the pantry.
type Category struct {
	CategoryID string    `json:"categoryId"` // UUID v7, generated on creation.
	Name       string    `json:"name"`       // Display name (required, unique).
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate checks the category against CategorySchema.
func (c *Category) Validate() error {
	return CategorySchema().Check(map[string]any{"name": c.Name})
}

// Noodles returns the noodles that reference this category, newest first.
// Returns an empty slice (not nil) when the category has none.
func (c *Category) Noodles(p Pantry) ([]*Noodle, error) {
	tbl, err := p.GetTable(TableNoodles)
	if err != nil {
		return nil, err
	}
	results, err := tbl.Fetch(Filter{"category_id": c.CategoryID})
	if err != nil {
		return nil, err
	}
	noodles := make([]*Noodle, 0, len(results))
	for _, r := range results {
		if n, ok := r.(*Noodle); ok {
			noodles = append(noodles, n)
		}
	}
	return noodles, nil
}
