// Package catalog loads the static instrument catalog from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/efreitasn/teamstocks/internal/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// File is the on-disk catalog format.
type File struct {
	Teams []Team `yaml:"teams"`
	ETFs  []ETF  `yaml:"etfs"`
}

// Team is a simple instrument with its tick 0 price.
type Team struct {
	Name      string `yaml:"name"`
	SeedPrice string `yaml:"seed_price"`
}

// ETF is a composite instrument averaging its member teams.
type ETF struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// Default returns the embedded catalog of 32 teams and 8 division ETFs.
func Default() (*domain.Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded default when path is
// empty.
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data and validates it.
func Parse(data []byte) (*domain.Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	instruments := make([]domain.Instrument, 0, len(f.Teams)+len(f.ETFs))
	for _, t := range f.Teams {
		price, err := domain.ParseMoney(t.SeedPrice)
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", t.Name, err)
		}
		instruments = append(instruments, domain.Instrument{
			Name:      t.Name,
			Kind:      domain.KindSimple,
			SeedPrice: price,
		})
	}
	for _, e := range f.ETFs {
		instruments = append(instruments, domain.Instrument{
			Name:    e.Name,
			Kind:    domain.KindComposite,
			Members: e.Members,
		})
	}

	c, err := domain.NewCatalog(instruments)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}
