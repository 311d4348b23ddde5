/*
	probelink
	Copyright (c) 2024 probelink contributors.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config reads the optional probelink.yaml file that pins down
// where the probe tools live and how long they may run. Command-line
// flags always win over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/probelink/probelink/probe/runner"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working
// directory; in the home directory a leading dot is added.
const FileName = "probelink.yaml"

// Tool configures one external probe tool.
type Tool struct {
	// Path is the executable name or full path.
	Path string `yaml:"path"`
	// Args are extra arguments appended to every invocation.
	Args []string `yaml:"args"`
}

// Config is the file layout.
type Config struct {
	JLink   Tool `yaml:"jlink"`
	OpenOCD Tool `yaml:"openocd"`

	// TimeoutSeconds bounds each tool run. Zero or absent keeps the
	// default bound.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// NoTimeout disables the bound entirely. Unbounded runs must be
	// asked for in so many words, not with a zero.
	NoTimeout bool `yaml:"no_timeout"`
}

// Load reads the configuration from file. With an explicit path the
// file must exist; otherwise probelink.yaml in the working directory
// and .probelink.yaml in the home directory are tried in that order,
// and a missing file yields an empty configuration.
func Load(file string) (*Config, error) {
	var path *paths.Path
	if file != "" {
		path = paths.New(file)
		if !path.Exist() {
			return nil, fmt.Errorf("config file %s not found", file)
		}
	} else {
		path = defaultPath()
		if path == nil {
			return &Config{}, nil
		}
	}

	data, err := path.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("config %s: timeout_seconds must not be negative, use no_timeout to disable the bound", path)
	}
	if cfg.NoTimeout && cfg.TimeoutSeconds != 0 {
		return nil, fmt.Errorf("config %s: timeout_seconds and no_timeout are mutually exclusive", path)
	}
	logrus.Debugf("loaded config from %s", path)
	return cfg, nil
}

func defaultPath() *paths.Path {
	if wd, err := paths.Getwd(); err == nil {
		if p := wd.Join(FileName); p.Exist() {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if p := paths.New(home).Join("." + FileName); p.Exist() {
			return p
		}
	}
	return nil
}

// Timeout resolves the file settings into a runner.Timeout.
func (c *Config) Timeout() runner.Timeout {
	if c.NoTimeout {
		return runner.NoTimeout
	}
	if c.TimeoutSeconds > 0 {
		return runner.After(time.Duration(c.TimeoutSeconds) * time.Second)
	}
	return runner.DefaultTimeout
}
