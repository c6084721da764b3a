package views

import "github.com/metorial/script-admin/internal/models"

const allLabel = "All"

type Chip struct {
	ID     string
	Name   string
	Active bool
}

type ListItem struct {
	Script       models.Script
	CategoryName string
}

type ListView struct {
	Chips []Chip
	Items []ListItem
}

func (l ListView) Empty() bool { return len(l.Items) == 0 }

// FilterScripts returns the scripts in the given category, keeping their
// order. An empty category returns every script.
func FilterScripts(scripts []models.Script, category string) []models.Script {
	if category == "" {
		return append([]models.Script{}, scripts...)
	}

	filtered := make([]models.Script, 0, len(scripts))
	for _, s := range scripts {
		if s.Category == category {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// CategoryChips lists the "All" chip followed by one chip per category.
func CategoryChips(categories []models.Category, selected string) []Chip {
	chips := make([]Chip, 0, len(categories)+1)
	chips = append(chips, Chip{ID: "", Name: allLabel, Active: selected == ""})
	for _, c := range categories {
		chips = append(chips, Chip{ID: c.ID, Name: c.Name, Active: selected == c.ID})
	}
	return chips
}

// CategoryName falls back to the id for categories that are not known.
func CategoryName(categories []models.Category, id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

func NewListView(scripts []models.Script, categories []models.Category, selected string) ListView {
	filtered := FilterScripts(scripts, selected)

	items := make([]ListItem, len(filtered))
	for i, s := range filtered {
		items[i] = ListItem{Script: s, CategoryName: CategoryName(categories, s.Category)}
	}

	return ListView{
		Chips: CategoryChips(categories, selected),
		Items: items,
	}
}
