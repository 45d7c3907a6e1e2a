package rule

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoRule is returned when no configured site serves the target URL's host.
var ErrNoRule = errors.New("no matching site rule")

// Selectors locate the chapter links on a table-of-contents page and the
// title and text blocks on a chapter page.
type Selectors struct {
	ChapterList     string `yaml:"chapter_list"`
	ChapterLinkAttr string `yaml:"chapter_link_attr"`
	ChapterTitle    string `yaml:"chapter_title"`
	ChapterContent  string `yaml:"chapter_content"`
}

// Site is one rule file entry: the hosts it serves, the declared page
// encoding and the selectors. Consumed read-only for the whole run.
type Site struct {
	Name     string    `yaml:"name"`
	Domains  []string  `yaml:"domains"`
	Encoding string    `yaml:"encoding"`
	Rules    Selectors `yaml:"rules"`
}

func (s *Site) validate() error {
	if s.Name == "" {
		return fmt.Errorf("site name is required")
	}
	if len(s.Domains) == 0 {
		return fmt.Errorf("at least one domain is required")
	}
	if s.Rules.ChapterList == "" || s.Rules.ChapterTitle == "" || s.Rules.ChapterContent == "" {
		return fmt.Errorf("chapter_list, chapter_title and chapter_content selectors are required")
	}
	return nil
}

// Resolver matches target URLs against the configured sites.
type Resolver struct {
	sites []Site
}

// NewResolver validates the sites and fills in the defaults: href as the
// link attribute, utf-8 as the encoding.
func NewResolver(sites []Site) (*Resolver, error) {
	for i := range sites {
		if err := sites[i].validate(); err != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", sites[i].Name, err)
		}
		if sites[i].Rules.ChapterLinkAttr == "" {
			sites[i].Rules.ChapterLinkAttr = "href"
		}
		if sites[i].Encoding == "" {
			sites[i].Encoding = "utf-8"
		}
	}
	return &Resolver{sites: sites}, nil
}

// Load reads a YAML rule file: a list of sites.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var sites []Site
	if err := yaml.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	return NewResolver(sites)
}

// Resolve returns the first site whose domain list contains the target
// URL's host. Hosts are compared exactly, port included.
func (r *Resolver) Resolve(target string) (*Site, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target url: %w", err)
	}

	for i := range r.sites {
		for _, domain := range r.sites[i].Domains {
			if domain == u.Host {
				return &r.sites[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w for host %q", ErrNoRule, u.Host)
}

// Sites lists the configured sites in file order.
func (r *Resolver) Sites() []Site {
	return r.sites
}
