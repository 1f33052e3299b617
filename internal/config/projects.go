package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mcoot/cloudserver/internal/channel"
)

// ErrNoVariant is returned for a project that serves neither variant
var ErrNoVariant = errors.New("project must serve scratch or turbowarp")

// Project is one entry of the projects file
type Project struct {
	ID        string `json:"id"`
	Scratch   bool   `json:"scratch"`
	Turbowarp bool   `json:"turbowarp"`
}

// Variants lists the channels the project is served on
func (p Project) Variants() []channel.Variant {
	var out []channel.Variant
	if p.Scratch {
		out = append(out, channel.VariantScratch)
	}
	if p.Turbowarp {
		out = append(out, channel.VariantTurbowarp)
	}
	return out
}

// LoadProjects reads and validates the projects file
func LoadProjects(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parse projects file %s: %w", path, err)
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("projects file %s lists no projects", path)
	}

	seen := make(map[string]bool, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project with empty id in %s", path)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate project %s", p.ID)
		}
		seen[p.ID] = true
		if len(p.Variants()) == 0 {
			return nil, fmt.Errorf("project %s: %w", p.ID, ErrNoVariant)
		}
	}
	return projects, nil
}
