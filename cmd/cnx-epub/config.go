package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config holds the transform service settings read from a YAML file.
type config struct {
	// MathMLURL is the TeX-to-MathML conversion service endpoint.
	MathMLURL string `yaml:"mathml_url"`

	// Exercise configures exercise embedding.
	Exercise struct {
		// Match is the href prefix identifying exercise links.
		Match string `yaml:"match"`

		// URLTemplate is the fetch URL with one %s verb for the tag.
		URLTemplate string `yaml:"url_template"`

		// Token authorizes requests, sent as a bearer token.
		Token string `yaml:"token"`
	} `yaml:"exercise"`

	// Timeout bounds each transform invocation.
	Timeout time.Duration `yaml:"timeout"`
}

func loadConfig(path string) (*config, error) {
	var cfg config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}
