package config

import (
	"os"

	"github.com/bimsrama/relasi4warna/internal/models"
	"gopkg.in/yaml.v3"
)

func LoadKeywordsConfig() (*KeywordsConfig, error) {

	path := os.Getenv("KEYWORDS_CONFIG_PATH")
	if path == "" {
		path = "configs/keywords.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg KeywordsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *KeywordsConfig) {
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = 10
	}
	if cfg.Weights == (WeightsConfig{}) {
		cfg.Weights = WeightsConfig{
			Red:           40,
			Yellow:        15,
			Weaponization: 25,
			Clinical:      20,
			Labeling:      10,
		}
	}
	if cfg.FlagIncrements == (FlagIncrementsConfig{}) {
		cfg.FlagIncrements = FlagIncrementsConfig{
			MultiDomainConflict: 15,
			PowerAsymmetry:      15,
			CoercionLanguage:    25,
		}
	}
}

// SeedKeywords flattens the configured lists into RiskKeyword records, each
// carrying its category's default weight.
func (c *KeywordsConfig) SeedKeywords() []models.RiskKeyword {
	var keywords []models.RiskKeyword
	for _, cat := range models.Categories {
		langs, ok := c.Keywords[string(cat)]
		if !ok {
			continue
		}
		for lang, terms := range langs {
			for _, term := range terms {
				keywords = append(keywords, models.RiskKeyword{
					Category: cat,
					Language: models.Language(lang),
					Term:     term,
					Weight:   c.Weights.ForCategory(cat),
				})
			}
		}
	}
	return keywords
}
