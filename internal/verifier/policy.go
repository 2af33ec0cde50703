package verifier

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	errs "foodmap-video-importer/pkg/errors"
)

//go:embed policy.yaml
var policyYAML []byte

// Policy decides whether a search candidate's directory types describe an
// eatery. Loaded from embedded YAML so the type lists can change without a
// code edit.
type Policy struct {
	foodTypes map[string]bool
	denyTypes map[string]bool
}

func LoadPolicy() (*Policy, error) {
	var doc struct {
		FoodTypes []string `yaml:"food_types"`
		DenyTypes []string `yaml:"deny_types"`
	}
	if err := yaml.Unmarshal(policyYAML, &doc); err != nil {
		return nil, errs.NewConfig("verifier.LoadPolicy", "parsing venue-type policy", err)
	}
	p := &Policy{
		foodTypes: make(map[string]bool, len(doc.FoodTypes)),
		denyTypes: make(map[string]bool, len(doc.DenyTypes)),
	}
	for _, t := range doc.FoodTypes {
		p.foodTypes[t] = true
	}
	for _, t := range doc.DenyTypes {
		p.denyTypes[t] = true
	}
	return p, nil
}

// Accept applies the policy: a deny type rejects unless a food type is also
// present; acceptance then requires a food type or a type containing
// "restaurant".
func (p *Policy) Accept(types []string) bool {
	hasFood := false
	hasDeny := false
	hasRestaurantish := false
	for _, t := range types {
		if p.foodTypes[t] {
			hasFood = true
		}
		if p.denyTypes[t] {
			hasDeny = true
		}
		if strings.Contains(t, "restaurant") {
			hasRestaurantish = true
		}
	}
	if hasDeny && !hasFood {
		return false
	}
	return hasFood || hasRestaurantish
}
