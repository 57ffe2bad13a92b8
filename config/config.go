// Package config holds the top level configuration.
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Main is the top level configuration.
type Main struct {
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	AppSec  AppSec  `yaml:"appsec"`
}

// Server is the HTTP listener configuration.
type Server struct {
	Addr               string `yaml:"addr"`
	MaxConcurrentConns int    `yaml:"maxConcurrentConns"`
}

// Logging configures the process log and the results log sink.
type Logging struct {
	Level       string `yaml:"level"`
	ResultsFile string `yaml:"resultsFile"`
}

// AppSec configures the security coordination layer.
type AppSec struct {
	Enabled              bool       `yaml:"enabled"`
	HeadersCaseSensitive bool       `yaml:"headersCaseSensitive"`
	RulesFile            string     `yaml:"rulesFile"`
	BodyLimits           BodyLimits `yaml:"bodyLimits"`
}

// BodyLimits bounds how much request body the parser will consume.
type BodyLimits struct {
	MaxLengthField    int `yaml:"maxLengthField"`
	MaxLengthPausable int `yaml:"maxLengthPausable"`
	MaxLengthTotal    int `yaml:"maxLengthTotal"`
}

// Default returns the configuration used when no file is given.
func Default() Main {
	return Main{
		Server: Server{
			Addr:               ":8080",
			MaxConcurrentConns: 1024,
		},
		Logging: Logging{
			Level: "info",
		},
		AppSec: AppSec{
			Enabled: true,
			BodyLimits: BodyLimits{
				MaxLengthField:    1024 * 20,
				MaxLengthPausable: 1024 * 128,
				MaxLengthTotal:    1024 * 1024,
			},
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (c Main, err error) {
	c = Default()

	bb, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}

	if err = yaml.Unmarshal(bb, &c); err != nil {
		err = fmt.Errorf("failed to parse config file %v: %v", path, err)
	}
	return
}
