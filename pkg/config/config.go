// Package config loads and validates recommendation run configuration.
// Validation happens before any traversal or scoring work so a bad weight
// set never wastes a partial run.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/csirtlab/hostrisk/pkg/similarity"
)

// ErrInvalidConfiguration wraps every configuration validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var validate = validator.New()

// SimilarityConfig carries the per-category comparator policy.
type SimilarityConfig struct {
	OSWeight          float64  `yaml:"os_weight" validate:"gte=0"`
	HardwareWeight    float64  `yaml:"hardware_weight" validate:"gte=0"`
	SoftwareWeight    float64  `yaml:"software_weight" validate:"gte=0"`
	CriticalThreshold float64  `yaml:"critical_threshold" validate:"gte=0,lte=1"`
	VendorWeight      float64  `yaml:"vendor_weight" validate:"gte=0"`
	ProductWeight     float64  `yaml:"product_weight" validate:"gte=0"`
	VersionWeight     float64  `yaml:"version_weight" validate:"gte=0"`
	RequiredSoftware  []string `yaml:"required_software"`
}

// Config is the full run configuration.
type Config struct {
	MaxDistance int              `yaml:"max_distance" validate:"gte=0"`
	Limit       int              `yaml:"limit" validate:"gte=0"` // 0 = unlimited
	Workers     int              `yaml:"workers" validate:"gte=0"`
	Verbose     bool             `yaml:"verbose"`
	Similarity  SimilarityConfig `yaml:"similarity"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	sim := similarity.DefaultConfig()
	fw := sim.FieldWeights
	return &Config{
		MaxDistance: 2,
		Similarity: SimilarityConfig{
			OSWeight:          sim.OSWeight,
			HardwareWeight:    sim.HardwareWeight,
			SoftwareWeight:    sim.SoftwareWeight,
			CriticalThreshold: sim.CriticalThreshold,
			VendorWeight:      fw.Vendor,
			ProductWeight:     fw.Product,
			VersionWeight:     fw.Version,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field constraints tags cannot
// express: each weight group must sum to something positive.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, firstValidationError(err))
	}

	catSum := c.Similarity.OSWeight + c.Similarity.HardwareWeight + c.Similarity.SoftwareWeight
	if catSum <= 0 || math.IsNaN(catSum) {
		return fmt.Errorf("%w: category weights must sum to a positive value, got %v", ErrInvalidConfiguration, catSum)
	}

	fieldSum := c.Similarity.VendorWeight + c.Similarity.ProductWeight + c.Similarity.VersionWeight
	if fieldSum <= 0 || math.IsNaN(fieldSum) {
		return fmt.Errorf("%w: field weights must sum to a positive value, got %v", ErrInvalidConfiguration, fieldSum)
	}

	return nil
}

// EngineConfig converts the loaded configuration into the similarity
// engine's form.
func (c *Config) EngineConfig() similarity.Config {
	return similarity.Config{
		OSWeight:          c.Similarity.OSWeight,
		HardwareWeight:    c.Similarity.HardwareWeight,
		SoftwareWeight:    c.Similarity.SoftwareWeight,
		CriticalThreshold: c.Similarity.CriticalThreshold,
		FieldWeights: similarity.FieldWeights{
			Vendor:  c.Similarity.VendorWeight,
			Product: c.Similarity.ProductWeight,
			Version: c.Similarity.VersionWeight,
		},
		RequiredSoftware: c.Similarity.RequiredSoftware,
	}
}

// firstValidationError converts validator output to one readable message.
func firstValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		switch e.Tag() {
		case "gte":
			return fmt.Errorf("%s: must be >= %s", e.Field(), e.Param())
		case "lte":
			return fmt.Errorf("%s: must be <= %s", e.Field(), e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", e.Field(), e.Tag())
		}
	}
	return err
}
