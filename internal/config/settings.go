package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/trajectory.model/internal/basis"
	"github.com/banshee-data/trajectory.model/internal/fit"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// DefaultSettingsPath is the path to the canonical model defaults file.
const DefaultSettingsPath = "config/model.defaults.json"

// Recognised model_type values. Aliases map to the same estimator.
const (
	ModelResampling        = "resampling"
	ModelMaximumLikelihood = "ML"
	ModelEM                = "EM"
)

// DefaultInsideSamples is the ellipsoid sample density for grid tube
// queries.
const DefaultInsideSamples = 12

// ModelSettings holds the settings a model is built from. The keys match
// the settings dictionaries used by existing model configurations, so the
// same JSON can be shared between tools.
type ModelSettings struct {
	ModelType *string `json:"model_type,omitempty" yaml:"model_type,omitempty"`
	NGaus     *int    `json:"ngaus,omitempty" yaml:"ngaus,omitempty"` // station count
	BasisType *string `json:"basis_type,omitempty" yaml:"basis_type,omitempty"`
	NBasis    *int    `json:"nbasis,omitempty" yaml:"nbasis,omitempty"`

	// EM params (optional)
	EMTolerance     *float64 `json:"em_tolerance,omitempty" yaml:"em_tolerance,omitempty"`
	EMMaxIterations *int     `json:"em_max_iterations,omitempty" yaml:"em_max_iterations,omitempty"`

	// Query params (optional)
	SampleSeed    *uint64 `json:"sample_seed,omitempty" yaml:"sample_seed,omitempty"`
	InsideSamples *int    `json:"inside_samples,omitempty" yaml:"inside_samples,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// NewResamplingSettings returns settings for the resampling model.
func NewResamplingSettings(stations int) *ModelSettings {
	return &ModelSettings{ModelType: ptrString(ModelResampling), NGaus: ptrInt(stations)}
}

// NewBasisSettings returns settings for a basis-function model (ML or EM).
func NewBasisSettings(modelType string, stations int, basisType string, nbasis int) *ModelSettings {
	return &ModelSettings{
		ModelType: ptrString(modelType),
		NGaus:     ptrInt(stations),
		BasisType: ptrString(basisType),
		NBasis:    ptrInt(nbasis),
	}
}

// LoadModelSettings loads ModelSettings from a .json, .yaml or .yml file.
// The file is validated to ensure it is under the max file size and that
// the settings describe a buildable model.
func LoadModelSettings(path string) (*ModelSettings, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("settings file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	cfg := &ModelSettings{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse settings: %v", trajectory.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// canonicalModelType maps accepted spellings onto the Model* constants.
func canonicalModelType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resampling":
		return ModelResampling, true
	case "ml", "maximum_likelihood":
		return ModelMaximumLikelihood, true
	case "em", "expectation_maximization":
		return ModelEM, true
	}
	return "", false
}

// Validate checks that the settings are complete and consistent. Every
// failure wraps trajectory.ErrConfiguration.
func (c *ModelSettings) Validate() error {
	if c.ModelType == nil {
		return fmt.Errorf("%w: model_type is required", trajectory.ErrConfiguration)
	}
	modelType, ok := canonicalModelType(*c.ModelType)
	if !ok {
		return fmt.Errorf("%w: unknown model_type %q", trajectory.ErrConfiguration, *c.ModelType)
	}

	if c.NGaus == nil {
		return fmt.Errorf("%w: ngaus is required", trajectory.ErrConfiguration)
	}
	if *c.NGaus < 1 {
		return fmt.Errorf("%w: ngaus must be positive, got %d", trajectory.ErrConfiguration, *c.NGaus)
	}

	if modelType != ModelResampling {
		if c.BasisType == nil || *c.BasisType == "" {
			return fmt.Errorf("%w: basis_type is required for model_type %s", trajectory.ErrConfiguration, modelType)
		}
		switch strings.ToLower(*c.BasisType) {
		case basis.Bernstein, basis.RBF:
		default:
			return fmt.Errorf("%w: unknown basis_type %q", trajectory.ErrConfiguration, *c.BasisType)
		}
		if c.NBasis == nil {
			return fmt.Errorf("%w: nbasis is required for model_type %s", trajectory.ErrConfiguration, modelType)
		}
		if *c.NBasis < basis.MinBasis {
			return fmt.Errorf("%w: nbasis must be >= %d, got %d", trajectory.ErrConfiguration, basis.MinBasis, *c.NBasis)
		}
	}

	if c.EMTolerance != nil && !(*c.EMTolerance > 0) {
		return fmt.Errorf("%w: em_tolerance must be positive, got %g", trajectory.ErrConfiguration, *c.EMTolerance)
	}
	if c.EMMaxIterations != nil && *c.EMMaxIterations < 1 {
		return fmt.Errorf("%w: em_max_iterations must be positive, got %d", trajectory.ErrConfiguration, *c.EMMaxIterations)
	}
	if c.InsideSamples != nil && *c.InsideSamples < 3 {
		return fmt.Errorf("%w: inside_samples must be >= 3, got %d", trajectory.ErrConfiguration, *c.InsideSamples)
	}
	return nil
}

// Method validates the settings and returns the estimator they select.
func (c *ModelSettings) Method() (fit.Method, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	modelType, _ := canonicalModelType(*c.ModelType)
	switch modelType {
	case ModelMaximumLikelihood:
		return fit.MaximumLikelihood{Basis: *c.BasisType, NBasis: *c.NBasis}, nil
	case ModelEM:
		return fit.ExpectationMaximization{
			Basis:         *c.BasisType,
			NBasis:        *c.NBasis,
			Tolerance:     c.GetEMTolerance(),
			MaxIterations: c.GetEMMaxIterations(),
		}, nil
	default:
		return fit.Resampling{}, nil
	}
}

// GetStations returns ngaus. Call Validate first.
func (c *ModelSettings) GetStations() int {
	if c.NGaus == nil {
		return 0
	}
	return *c.NGaus
}

// GetEMTolerance returns the em_tolerance value or the default.
func (c *ModelSettings) GetEMTolerance() float64 {
	if c.EMTolerance == nil {
		return fit.DefaultEMTolerance
	}
	return *c.EMTolerance
}

// GetEMMaxIterations returns the em_max_iterations value or the default.
func (c *ModelSettings) GetEMMaxIterations() int {
	if c.EMMaxIterations == nil {
		return fit.DefaultEMMaxIterations
	}
	return *c.EMMaxIterations
}

// GetSampleSeed returns the sample_seed value or the default.
func (c *ModelSettings) GetSampleSeed() uint64 {
	if c.SampleSeed == nil {
		return 0
	}
	return *c.SampleSeed
}

// GetInsideSamples returns the inside_samples value or the default.
func (c *ModelSettings) GetInsideSamples() int {
	if c.InsideSamples == nil {
		return DefaultInsideSamples
	}
	return *c.InsideSamples
}
