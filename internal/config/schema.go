package config

import (
	"fmt"

	"github.com/bimsrama/relasi4warna/internal/models"
)

// KeywordsConfig is the YAML shape of the seed keyword lists and the scoring
// weight table. It only seeds the very first keyword-set snapshot; after
// that, admin updates publish new snapshots through the registry.
type KeywordsConfig struct {
	SamplingRate   int                  `yaml:"sampling_rate"`
	Weights        WeightsConfig        `yaml:"weights"`
	FlagIncrements FlagIncrementsConfig `yaml:"flag_increments"`
	// category -> language -> terms
	Keywords map[string]map[string][]string `yaml:"keywords"`
}

// WeightsConfig is the per-category default keyword weight.
type WeightsConfig struct {
	Red           int `yaml:"red"`
	Yellow        int `yaml:"yellow"`
	Weaponization int `yaml:"weaponization"`
	Clinical      int `yaml:"clinical"`
	Labeling      int `yaml:"labeling"`
}

// ForCategory maps a risk category to its configured weight.
func (w WeightsConfig) ForCategory(cat models.RiskCategory) int {
	switch cat {
	case models.CategoryRed:
		return w.Red
	case models.CategoryYellow:
		return w.Yellow
	case models.CategoryWeaponization:
		return w.Weaponization
	case models.CategoryClinical:
		return w.Clinical
	case models.CategoryLabeling:
		return w.Labeling
	}
	return 0
}

// FlagIncrementsConfig is the fixed score increment per contextual flag.
type FlagIncrementsConfig struct {
	MultiDomainConflict int `yaml:"multi_domain_conflict"`
	PowerAsymmetry      int `yaml:"power_asymmetry"`
	CoercionLanguage    int `yaml:"coercion_language"`
}

func (c *KeywordsConfig) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 100 {
		return fmt.Errorf("sampling_rate %d out of range [0, 100]", c.SamplingRate)
	}

	valid := make(map[string]bool, len(models.Categories))
	for _, cat := range models.Categories {
		valid[string(cat)] = true
	}

	for cat, langs := range c.Keywords {
		if !valid[cat] {
			return fmt.Errorf("unknown keyword category %q", cat)
		}
		for lang, terms := range langs {
			if lang != string(models.LanguageIndonesian) && lang != string(models.LanguageEnglish) {
				return fmt.Errorf("unknown language %q in category %q", lang, cat)
			}
			for _, term := range terms {
				if term == "" {
					return fmt.Errorf("empty term in category %q language %q", cat, lang)
				}
			}
		}
	}

	return nil
}
