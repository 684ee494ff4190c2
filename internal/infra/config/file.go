package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bmrengine/internal/app/features"
)

// fileConfig is the YAML layout of BMR_CONFIG_FILE.
type fileConfig struct {
	DefaultMethod string `yaml:"default_method"`
	Cache         struct {
		Mode string `yaml:"mode"`
		TTL  string `yaml:"ttl"`
	} `yaml:"cache"`
	Flags       []flagConfig       `yaml:"flags"`
	Experiments []experimentConfig `yaml:"experiments"`
}

type flagConfig struct {
	Name              string   `yaml:"name"`
	Enabled           bool     `yaml:"enabled"`
	RolloutPercentage float64  `yaml:"rollout_percentage"`
	Methods           []string `yaml:"methods"`
}

type experimentConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Variants []struct {
		Method string  `yaml:"method"`
		Weight float64 `yaml:"weight"`
	} `yaml:"variants"`
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) flags() []features.Flag {
	out := make([]features.Flag, 0, len(fc.Flags))
	for _, f := range fc.Flags {
		out = append(out, features.Flag{
			Name:    f.Name,
			Enabled: f.Enabled,
			Rollout: f.RolloutPercentage / 100,
			Methods: f.Methods,
		})
	}
	return out
}

func (fc fileConfig) experiments() []features.Experiment {
	out := make([]features.Experiment, 0, len(fc.Experiments))
	for _, e := range fc.Experiments {
		exp := features.Experiment{Name: e.Name, Enabled: e.Enabled}
		for _, v := range e.Variants {
			exp.Variants = append(exp.Variants, features.Variant{Method: v.Method, Weight: v.Weight})
		}
		out = append(out, exp)
	}
	return out
}
