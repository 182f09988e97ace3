package config

import (
	_ "embed"
	"fmt"
	"os"

	"nutriplan/engine"

	"gopkg.in/yaml.v3"
)

//go:embed tiers.yaml
var defaultTiers []byte

// TierCatalog maps subscription tiers to per-resource monthly limits.
type TierCatalog struct {
	DefaultTier string                                   `yaml:"default_tier"`
	Tiers       map[string]map[engine.ResourceType]int64 `yaml:"tiers"`
}

// LoadTiers reads the catalog from path, or the embedded one when path is empty.
func LoadTiers(path string) (*TierCatalog, error) {
	raw := defaultTiers
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tiers file: %w", err)
		}
		raw = b
	}
	return ParseTiers(raw)
}

func ParseTiers(raw []byte) (*TierCatalog, error) {
	var c TierCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("parse tiers: no tiers defined")
	}
	if _, ok := c.Tiers[c.DefaultTier]; !ok {
		return nil, fmt.Errorf("parse tiers: default tier %q not defined", c.DefaultTier)
	}
	for tier, limits := range c.Tiers {
		for res, lim := range limits {
			if lim < engine.UnlimitedQuota {
				return nil, fmt.Errorf("parse tiers: %s/%s limit %d is invalid", tier, res, lim)
			}
		}
	}
	return &c, nil
}

// Limit returns the tier's limit for resource. Unknown tiers fall back to
// the default tier; a resource missing from the tier is not available (0).
func (c *TierCatalog) Limit(tier string, resource engine.ResourceType) int64 {
	limits, ok := c.Tiers[tier]
	if !ok {
		limits = c.Tiers[c.DefaultTier]
	}
	return limits[resource]
}

func (c *TierCatalog) Known(resource engine.ResourceType) bool {
	for _, limits := range c.Tiers {
		if _, ok := limits[resource]; ok {
			return true
		}
	}
	return false
}
