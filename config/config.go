// Copyright 2019 The Metrics Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the YAML-loadable renderer configuration.
package config

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v2"

	"github.com/seeekr/metrics/quantile"
	"github.com/seeekr/metrics/sketch"
)

// DefaultConfig is the renderer configuration used when fields are left
// unset: the conventional quantile ladder and sketch bounds wide enough for
// nanosecond latencies.
var DefaultConfig = Config{
	Quantiles: quantile.Defaults(),
	Sketch:    sketch.DefaultConfig,
}

// Config configures a Prometheus renderer.
type Config struct {
	// Quantiles emitted for every histogram summary, in caller order.
	Quantiles []float64 `yaml:"quantiles,omitempty"`
	// Sketch bounds the representable histogram value range and precision.
	Sketch sketch.Config `yaml:"sketch,omitempty"`
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = Config{Sketch: sketch.DefaultConfig}
	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if len(c.Quantiles) == 0 {
		// Freshly allocated so the result never aliases
		// DefaultConfig.Quantiles.
		c.Quantiles = quantile.Defaults()
	}
	if c.Sketch == (sketch.Config{}) {
		c.Sketch = sketch.DefaultConfig
	}
	return c.Validate()
}

// Validate checks the configuration, failing fast on out-of-range quantiles
// or degenerate sketch bounds.
func (c *Config) Validate() error {
	if _, err := quantile.Parse(c.Quantiles); err != nil {
		return err
	}
	return c.Sketch.Validate()
}

// Load parses a Config from YAML.
func Load(s string) (*Config, error) {
	cfg := Config{
		Quantiles: quantile.Defaults(),
		Sketch:    sketch.DefaultConfig,
	}
	if err := yaml.UnmarshalStrict([]byte(s), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile parses the file at path into a Config.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
