package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibertrack/internal/tracking"
)

const (
	DefaultStepSize    = 0.5
	DefaultMaxAngleDeg = 20.0
	DefaultThreshold   = 0.1
	DefaultSamples     = 4
	DefaultMaxTrials   = 100
	DefaultStreamlines = 100
	DefaultMaxSteps    = 500
	DefaultMinVertices = 5
)

// Properties is the yaml-backed parameter set for one tracking run.
type Properties struct {
	StepSize       float64 `yaml:"step_size"`
	MaxAngleDeg    float64 `yaml:"max_angle"`
	Threshold      float64 `yaml:"threshold"`
	InitThreshold  float64 `yaml:"init_threshold"`
	Samples        int     `yaml:"samples_per_step"`
	MaxTrials      int     `yaml:"max_trials"`
	Precomputed    bool    `yaml:"sh_precomputed"`
	Streamlines    int     `yaml:"streamlines"`
	Workers        int     `yaml:"workers"`
	Seed           int64   `yaml:"seed"`
	MaxSteps       int     `yaml:"max_steps"`
	MinVertices    int     `yaml:"min_vertices"`
	Unidirectional bool    `yaml:"unidirectional"`
}

func Default() *Properties {
	return &Properties{
		StepSize:    DefaultStepSize,
		MaxAngleDeg: DefaultMaxAngleDeg,
		Threshold:   DefaultThreshold,
		Samples:     DefaultSamples,
		MaxTrials:   DefaultMaxTrials,
		Precomputed: true,
		Streamlines: DefaultStreamlines,
		MaxSteps:    DefaultMaxSteps,
		MinVertices: DefaultMinVertices,
	}
}

func Load(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func Save(path string, p *Properties) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// TrackingParams maps the run properties onto the sampler's parameter
// set for a field of the given SH order. Validation happens when the
// shared configuration is built from the result.
func (p *Properties) TrackingParams(lmax int) tracking.Params {
	return tracking.Params{
		StepSize:      p.StepSize,
		MaxAngle:      p.MaxAngleDeg * math.Pi / 180,
		Threshold:     p.Threshold,
		InitThreshold: p.InitThreshold,
		NumSamples:    p.Samples,
		MaxTrials:     p.MaxTrials,
		Lmax:          lmax,
	}
}
