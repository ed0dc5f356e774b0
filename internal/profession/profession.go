// Package profession holds the static set of job roles an interview can be
// run for.
package profession

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// minSkills is the number of skills the stage guidance refers to by position.
const minSkills = 4

// ErrUnknown is returned when a profession id is not part of the catalog.
var ErrUnknown = errors.New("unknown profession")

//go:embed professions.yaml
var catalogYAML []byte

// Profile describes a job role used to parameterize prompts.
type Profile struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Skills []string `yaml:"skills" json:"skills"`
	Focus  string   `yaml:"focus" json:"-"`
}

// Summary is the public view of a profile exposed by the API.
type Summary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

// Catalog is an ordered, read-only set of profiles.
type Catalog struct {
	profiles []Profile
	byID     map[string]int
}

type catalogFile struct {
	Professions []Profile `yaml:"professions"`
}

var defaultCatalog = mustParse(catalogYAML)

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profession catalog: %w", err)
	}

	if len(file.Professions) == 0 {
		return nil, errors.New("profession catalog is empty")
	}

	c := &Catalog{
		profiles: make([]Profile, 0, len(file.Professions)),
		byID:     make(map[string]int, len(file.Professions)),
	}

	for i, p := range file.Professions {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Focus = strings.TrimSpace(p.Focus)

		if p.ID == "" {
			return nil, fmt.Errorf("profession %d: id is required", i)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("profession %q: name is required", p.ID)
		}
		if len(p.Skills) < minSkills {
			return nil, fmt.Errorf("profession %q: at least %d skills are required, got %d", p.ID, minSkills, len(p.Skills))
		}
		if _, ok := c.byID[p.ID]; ok {
			return nil, fmt.Errorf("profession %q: duplicate id", p.ID)
		}

		c.byID[p.ID] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	return c, nil
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the profile registered under id.
func (c *Catalog) Lookup(id string) (Profile, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return c.profiles[idx], nil
}

// Name returns the display name for id, or id itself when it is unknown.
func (c *Catalog) Name(id string) string {
	p, err := c.Lookup(id)
	if err != nil {
		return id
	}
	return p.Name
}

// List returns the public summaries in catalog order.
func (c *Catalog) List() []Summary {
	out := make([]Summary, 0, len(c.profiles))
	for _, p := range c.profiles {
		skills := make([]string, len(p.Skills))
		copy(skills, p.Skills)
		out = append(out, Summary{ID: p.ID, Name: p.Name, Skills: skills})
	}
	return out
}

func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		ids = append(ids, p.ID)
	}
	return ids
}
