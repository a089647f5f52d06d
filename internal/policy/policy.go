// Package policy renders the fixed system policy that constrains the model to
// AWS sustainability assessments.
package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the YAML document the policy is rendered from.
type Catalog struct {
	Persona        string          `yaml:"persona"`
	Services       []string        `yaml:"services"`
	DefaultRegion  string          `yaml:"default_region"`
	HoursPerMonth  int             `yaml:"hours_per_month"`
	Specifications []Specification `yaml:"specifications"`
	Rules          []string        `yaml:"rules"`
	PromptSuffix   string          `yaml:"prompt_suffix"`
}

// Specification lists what counts as a valid request for one service. Exactly
// one of Families, Values or Limits is set.
type Specification struct {
	Service  string   `yaml:"service"`
	Families []Family `yaml:"families"`
	Values   []string `yaml:"values"`
	Limits   string   `yaml:"limits"`
}

type Family struct {
	Name  string   `yaml:"name"`
	Types []string `yaml:"types"`
}

// Policy is immutable once built and safe for concurrent use.
type Policy struct {
	system       string
	promptSuffix string
	services     []string
}

// Default builds the policy from the embedded catalog.
func Default() (*Policy, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog document and renders it.
func Parse(data []byte) (*Policy, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("policy: decode catalog: %w", err)
	}
	return New(c)
}

// New validates the catalog and renders the system text.
func New(c Catalog) (*Policy, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Policy{
		system:       render(c),
		promptSuffix: normalize(c.PromptSuffix),
		services:     slices.Clone(c.Services),
	}, nil
}

// System returns the system prompt sent with every inference call.
func (p *Policy) System() string { return p.system }

// PromptSuffix returns the validation instructions appended to each user prompt.
func (p *Policy) PromptSuffix() string { return p.promptSuffix }

func (p *Policy) Services() []string { return slices.Clone(p.services) }

func (c Catalog) validate() error {
	if strings.TrimSpace(c.Persona) == "" {
		return errors.New("policy: persona must not be empty")
	}
	if len(c.Services) == 0 {
		return errors.New("policy: at least one service is required")
	}
	if strings.TrimSpace(c.DefaultRegion) == "" {
		return errors.New("policy: default region must not be empty")
	}
	if c.HoursPerMonth <= 0 {
		return errors.New("policy: hours per month must be positive")
	}
	if strings.TrimSpace(c.PromptSuffix) == "" {
		return errors.New("policy: prompt suffix must not be empty")
	}
	for _, s := range c.Specifications {
		if !slices.Contains(c.Services, s.Service) {
			return fmt.Errorf("policy: specification for unknown service %q", s.Service)
		}
		set := 0
		if len(s.Families) > 0 {
			set++
		}
		if len(s.Values) > 0 {
			set++
		}
		if strings.TrimSpace(s.Limits) != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("policy: specification for %s must set exactly one of families, values or limits", s.Service)
		}
		for _, f := range s.Families {
			if f.Name == "" || len(f.Types) == 0 {
				return fmt.Errorf("policy: %s family %q has no instance types", s.Service, f.Name)
			}
		}
	}
	return nil
}

func render(c Catalog) string {
	rules := make([]string, 0, len(c.Rules))
	for i, r := range c.Rules {
		rules = append(rules, fmt.Sprintf("%d) %s", i+1, normalize(r)))
	}

	return strings.Join([]string{
		"Role:",
		normalize(c.Persona),
		"",
		"Supported Services:",
		"Valid services are: " + strings.Join(c.Services, ", ") + ".",
		"",
		"Valid Specifications:",
		renderSpecifications(c.Specifications),
		"",
		"Assumptions:",
		fmt.Sprintf("- If the region is not provided, assume region %s and notify this to the customer in the calculation.", c.DefaultRegion),
		fmt.Sprintf("- Assume %d hours per month and notify this to the customer in the calculation.", c.HoursPerMonth),
		"",
		"Behavior Rules:",
		strings.Join(rules, "\n"),
	}, "\n")
}

func renderSpecifications(specs []Specification) string {
	lines := make([]string, 0, len(specs))
	for _, s := range specs {
		switch {
		case len(s.Families) > 0:
			families := make([]string, 0, len(s.Families))
			for _, f := range s.Families {
				families = append(families, fmt.Sprintf("%s (%s)", f.Name, strings.Join(f.Types, " | ")))
			}
			lines = append(lines, fmt.Sprintf("- %s instance families and types: %s", s.Service, strings.Join(families, "; ")))
		case len(s.Values) > 0:
			lines = append(lines, fmt.Sprintf("- %s: %s", s.Service, strings.Join(s.Values, " | ")))
		default:
			lines = append(lines, fmt.Sprintf("- %s: %s", s.Service, normalize(s.Limits)))
		}
	}
	return strings.Join(lines, "\n")
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
