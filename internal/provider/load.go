package provider

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/apkfetch/apkfetch/internal/scrape"
)

// ruleTOML is the on-disk form of a scrape.LinkRule. Pattern is a
// regexp source string compiled at load time.
type ruleTOML struct {
	Selector string `toml:"selector"`
	Contains string `toml:"contains"`
	Exclude  string `toml:"exclude"`
	Pattern  string `toml:"pattern"`
}

func (r ruleTOML) compile() (scrape.LinkRule, error) {
	out := scrape.LinkRule{
		Selector: r.Selector,
		Contains: r.Contains,
		Exclude:  r.Exclude,
	}
	if r.Selector == "" {
		return out, fmt.Errorf("rule missing selector")
	}
	if r.Pattern != "" {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return out, fmt.Errorf("rule pattern %q: %w", r.Pattern, err)
		}
		out.Pattern = re
	}
	return out, nil
}

type descriptorTOML struct {
	Descriptor
	CandidateRule *ruleTOML  `toml:"candidate_rule"`
	LandingRules  []ruleTOML `toml:"landing_rules"`
}

type fileTOML struct {
	Providers []descriptorTOML `toml:"providers"`
}

// LoadFile reads a provider set from a TOML file, replacing the
// built-in defaults entirely. Declaration order in the file becomes
// the set's order.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML provider set.
func Parse(data []byte) (*Set, error) {
	var f fileTOML
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	if len(f.Providers) == 0 {
		return nil, fmt.Errorf("providers file defines no providers")
	}

	descriptors := make([]Descriptor, 0, len(f.Providers))
	for i, p := range f.Providers {
		d := p.Descriptor
		if err := validate(&p, i); err != nil {
			return nil, err
		}
		if p.CandidateRule != nil {
			rule, err := p.CandidateRule.compile()
			if err != nil {
				return nil, fmt.Errorf("provider %q: candidate %w", d.Name, err)
			}
			d.CandidateRule = rule
		}
		for _, raw := range p.LandingRules {
			rule, err := raw.compile()
			if err != nil {
				return nil, fmt.Errorf("provider %q: landing %w", d.Name, err)
			}
			d.LandingRules = append(d.LandingRules, rule)
		}
		descriptors = append(descriptors, d)
	}
	return NewSet(descriptors), nil
}

func validate(p *descriptorTOML, index int) error {
	if p.Name == "" {
		return fmt.Errorf("provider %d: missing name", index)
	}
	switch p.Tier {
	case TierNone:
		if p.SearchURL == "" {
			return fmt.Errorf("provider %q: search-only provider needs search_url", p.Name)
		}
	case TierCDN:
		if p.ProbeURL == "" || !strings.Contains(p.ProbeURL, "{pkg}") {
			return fmt.Errorf("provider %q: tier 1 needs probe_url with {pkg}", p.Name)
		}
	case TierPage:
		if p.PageURL == "" {
			return fmt.Errorf("provider %q: tier 2 needs page_url", p.Name)
		}
		if p.CandidateRule == nil {
			return fmt.Errorf("provider %q: tier 2 needs candidate_rule", p.Name)
		}
	default:
		return fmt.Errorf("provider %q: unknown tier %d", p.Name, p.Tier)
	}
	if p.Searchable() && (p.ItemSelector == "" || len(p.TitleSelectors) == 0) {
		return fmt.Errorf("provider %q: search_url needs item_selector and title_selectors", p.Name)
	}
	return nil
}
