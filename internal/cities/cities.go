// Package cities resolves which Vietnamese city a video is about so place
// search can be location-biased. Alias and coordinate data lives in an
// embedded YAML file rather than code.
package cities

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/vntext"
)

//go:embed cities.yaml
var citiesYAML []byte

type City struct {
	Name    string   `yaml:"name"`
	Lat     float64  `yaml:"lat"`
	Lng     float64  `yaml:"lng"`
	Aliases []string `yaml:"aliases"`
}

type Index struct {
	cities      []City
	defaultCity City
}

// Load parses the embedded city table. defaultName selects the fallback
// city used when no alias matches; it must exist in the table.
func Load(defaultName string) (*Index, error) {
	var doc struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(citiesYAML, &doc); err != nil {
		return nil, errs.NewConfig("cities.Load", "parsing embedded city data", err)
	}
	if len(doc.Cities) == 0 {
		return nil, errs.NewConfig("cities.Load", "empty city table", nil)
	}

	idx := &Index{cities: doc.Cities, defaultCity: doc.Cities[0]}
	for _, c := range doc.Cities {
		if strings.EqualFold(c.Name, defaultName) {
			idx.defaultCity = c
			break
		}
	}
	return idx, nil
}

// Infer scans the given text fragments for a city alias, diacritic and
// case insensitive. City names themselves also count as aliases. First
// match wins across fragments in order; no match returns the default city.
func (idx *Index) Infer(fragments ...string) City {
	text := vntext.Fold(strings.Join(fragments, " "))
	for _, c := range idx.cities {
		if strings.Contains(text, vntext.Fold(c.Name)) {
			return c
		}
		for _, alias := range c.Aliases {
			if strings.Contains(text, vntext.Fold(alias)) {
				return c
			}
		}
	}
	return idx.defaultCity
}

// Default returns the configured fallback city.
func (idx *Index) Default() City { return idx.defaultCity }
