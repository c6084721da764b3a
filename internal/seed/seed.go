// Package seed holds the categories and sample scripts loaded at startup.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metorial/script-admin/internal/models"
)

type Catalog struct {
	Categories []models.Category `yaml:"categories"`
	Scripts    []models.Script   `yaml:"scripts"`
}

func Categories() []models.Category {
	return []models.Category{
		{ID: "system", Name: "System"},
		{ID: "web", Name: "Web Development"},
		{ID: "data", Name: "Data Processing"},
		{ID: "utility", Name: "Utilities"},
	}
}

func Scripts() []models.Script {
	return []models.Script{
		{
			ID:          "python-version",
			Name:        "Python Version",
			Description: "Display the installed Python version",
			Command:     "python --version",
			Category:    "system",
		},
		{
			ID:          "list-files",
			Name:        "List Files",
			Description: "List files in the current directory",
			Command:     `python -c "import os; print(os.listdir('.'))"`,
			Category:    "system",
		},
		{
			ID:          "hello-world",
			Name:        "Hello World",
			Description: "Simple Hello World script",
			Command:     `python -c "print('Hello, World!')"`,
			Category:    "utility",
		},
		{
			ID:          "system-info",
			Name:        "System Info",
			Description: "Display system information",
			Command:     `python -c "import platform; print(platform.uname())"`,
			Category:    "system",
		},
		{
			ID:          "current-time",
			Name:        "Current Time",
			Description: "Display the current date and time",
			Command:     `python -c "import datetime; print(datetime.datetime.now())"`,
			Category:    "utility",
		},
	}
}

func Default() *Catalog {
	return &Catalog{Categories: Categories(), Scripts: Scripts()}
}

// Load reads a YAML catalog. Sections missing from the file fall back to
// the built-in defaults.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	if len(cat.Categories) == 0 {
		cat.Categories = Categories()
	}
	if cat.Scripts == nil {
		cat.Scripts = Scripts()
	}

	if err := cat.validate(); err != nil {
		return nil, err
	}

	return &cat, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Categories))
	for _, category := range c.Categories {
		if category.ID == "" {
			return fmt.Errorf("category with empty id")
		}
		if seen[category.ID] {
			return fmt.Errorf("duplicate category %q", category.ID)
		}
		seen[category.ID] = true
	}

	ids := make(map[string]bool, len(c.Scripts))
	for i := range c.Scripts {
		s := &c.Scripts[i]
		if s.ID == "" || s.Name == "" || s.Command == "" {
			return fmt.Errorf("script %d: id, name and command are required", i)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate script id %q", s.ID)
		}
		ids[s.ID] = true
		if s.Category == "" {
			s.Category = c.Categories[0].ID
		}
	}

	return nil
}
