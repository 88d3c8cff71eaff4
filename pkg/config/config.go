// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package config loads awsfinder settings from a config file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"dario.cat/mergo"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/awsfinder/awsfinder/pkg/errs"
)

const (
	// DefaultPath is read when no --config flag is given
	DefaultPath = "~/.awsfinder.yaml"
	// EnvPrefix prefixes the environment variables read, e.g. AWSFINDER_REGION
	EnvPrefix = "awsfinder"

	defaultRegion   = "us-east-1"
	defaultOutput   = "json"
	defaultLogLevel = "info"
)

var defaultTagKeys = []string{"version"}

// Config holds the settings shared by every command
type Config struct {
	Region   string   `mapstructure:"region"`
	Profile  string   `mapstructure:"profile"`
	Output   string   `mapstructure:"output"`
	TagKeys  []string `mapstructure:"tag_keys"`
	LogLevel string   `mapstructure:"log_level"`
}

var keys = []string{"region", "profile", "output", "tag_keys", "log_level"}

// Load reads the config file at path and AWSFINDER_* environment variables.
// A missing file is an error only when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Config{}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return cfg, errs.New(errs.KindConfig, "bind env", err)
		}
	}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return cfg, errs.New(errs.KindConfig, "expand config path", err)
		}
		_, statErr := os.Stat(expanded)
		switch {
		case statErr == nil:
			v.SetConfigFile(expanded)
			if err := v.ReadInConfig(); err != nil {
				return cfg, errs.New(errs.KindConfig, "read config file", err)
			}
		case errors.Is(statErr, fs.ErrNotExist) && !required:
		default:
			return cfg, errs.New(errs.KindConfig, "read config file", statErr)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errs.New(errs.KindConfig, "decode config", err)
	}
	return cfg, nil
}

// Merge overlays the non-empty fields of overrides onto base
func Merge(base Config, overrides Config) (Config, error) {
	if err := mergo.Merge(&base, overrides, mergo.WithOverride); err != nil {
		return base, errs.New(errs.KindConfig, "merge config", err)
	}
	return base, nil
}

// WithDefaults fills every unset field with its default
func (c Config) WithDefaults() (Config, error) {
	defaults := Config{
		Region:   defaultRegion,
		Output:   defaultOutput,
		TagKeys:  defaultTagKeys,
		LogLevel: defaultLogLevel,
	}
	// merging without override only fills empty fields
	if err := mergo.Merge(&c, defaults); err != nil {
		return c, errs.New(errs.KindConfig, "apply config defaults", err)
	}
	c.TagKeys = lo.Uniq(lo.Compact(lo.Map(c.TagKeys, func(key string, _ int) string {
		return strings.TrimSpace(key)
	})))
	if len(c.TagKeys) == 0 {
		c.TagKeys = defaultTagKeys
	}
	return c, nil
}

// Validate checks the output format and log level against the accepted values
func (c Config) Validate(outputs []string, levels []string) error {
	if !lo.Contains(outputs, c.Output) {
		return errs.Errorf(errs.KindConfig, "validate config", "output %q is not one of: %s", c.Output, strings.Join(outputs, ", "))
	}
	if !lo.Contains(levels, strings.ToLower(c.LogLevel)) {
		return errs.Errorf(errs.KindConfig, "validate config", "log level %q is not one of: %s", c.LogLevel, strings.Join(levels, ", "))
	}
	if len(c.TagKeys) == 0 {
		return errs.Errorf(errs.KindConfig, "validate config", "at least one tag key is required")
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("region=%s profile=%s output=%s tag_keys=%s log_level=%s", c.Region, c.Profile, c.Output, strings.Join(c.TagKeys, ","), c.LogLevel)
}
