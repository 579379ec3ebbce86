package redirect

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marketplace describes where reviews for one marketplace are left.
type Marketplace struct {
	Code            string `yaml:"code" json:"code"`
	Domain          string `yaml:"domain" json:"domain"`
	OrderHistoryURL string `yaml:"order_history_url" json:"order_history_url"`
}

// ReviewURL returns the product review page for asin.
func (m Marketplace) ReviewURL(asin string) string {
	return fmt.Sprintf("https://%s/review/create-review?asin=%s", m.Domain, asin)
}

// Catalog maps a marketplace code (lowercase) to its entry.
type Catalog map[string]Marketplace

// Lookup finds a marketplace by code, case-insensitively.
func (c Catalog) Lookup(code string) (Marketplace, bool) {
	m, ok := c[strings.ToLower(strings.TrimSpace(code))]
	return m, ok
}

func entry(code, domain string) Marketplace {
	return Marketplace{
		Code:            code,
		Domain:          domain,
		OrderHistoryURL: "https://" + domain + "/gp/css/order-history",
	}
}

// DefaultCatalog covers the marketplaces campaigns are sold in.
func DefaultCatalog() Catalog {
	c := Catalog{}
	for _, m := range []Marketplace{
		entry("us", "www.amazon.com"),
		entry("ca", "www.amazon.ca"),
		entry("mx", "www.amazon.com.mx"),
		entry("br", "www.amazon.com.br"),
		entry("gb", "www.amazon.co.uk"),
		entry("de", "www.amazon.de"),
		entry("fr", "www.amazon.fr"),
		entry("it", "www.amazon.it"),
		entry("es", "www.amazon.es"),
		entry("nl", "www.amazon.nl"),
		entry("se", "www.amazon.se"),
		entry("pl", "www.amazon.pl"),
		entry("jp", "www.amazon.co.jp"),
		entry("in", "www.amazon.in"),
		entry("au", "www.amazon.com.au"),
		entry("ae", "www.amazon.ae"),
	} {
		c[m.Code] = m
	}
	// "uk" is commonly used for the British store.
	c["uk"] = c["gb"]
	return c
}

type catalogFile struct {
	Marketplaces []Marketplace `yaml:"marketplaces"`
}

// LoadCatalog reads marketplace overrides from a YAML file and merges them
// over the defaults. A missing file yields the defaults.
func LoadCatalog(path string) (Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, fmt.Errorf("failed to read marketplace catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse marketplace catalog: %w", err)
	}
	catalog.Merge(file.Marketplaces)
	return catalog, nil
}

// Merge adds or replaces entries. Entries without a code or domain are
// skipped; a missing order-history URL is derived from the domain.
func (c Catalog) Merge(entries []Marketplace) {
	for _, m := range entries {
		code := strings.ToLower(strings.TrimSpace(m.Code))
		if code == "" || m.Domain == "" {
			continue
		}
		if m.OrderHistoryURL == "" {
			m = entry(code, m.Domain)
		}
		m.Code = code
		c[code] = m
	}
}
