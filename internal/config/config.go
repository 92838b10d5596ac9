// Package config loads the restpilot CLI's own configuration: which
// collection file to use, which profile to default to, and the HTTP
// engine's client options. It decodes YAML into a generic map, layers it
// over defaults with dario.cat/mergo, then decodes the merged map into a
// typed struct with github.com/go-viper/mapstructure/v2, rather than
// hand-rolling a defaulting pass.
package config

import (
	"fmt"
	"io"
	"os"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Config is the engine-level configuration a hosting CLI loads once at
// startup (spec.md §4.4's client selection and body-recording knobs, plus
// the collection/profile to operate against by default).
type Config struct {
	CollectionFile string `mapstructure:"collection_file" yaml:"collection_file"`
	Profile        string `mapstructure:"profile" yaml:"profile"`

	IgnoreCertificateHosts   []string `mapstructure:"ignore_certificate_hosts" yaml:"ignore_certificate_hosts,omitempty"`
	FollowRedirects          bool     `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	BodyRecordThresholdBytes int64    `mapstructure:"body_record_threshold_bytes" yaml:"body_record_threshold_bytes"`
}

// Defaults returns the configuration applied when no file and no overrides
// are present.
func Defaults() Config {
	return Config{
		CollectionFile:           "restpilot.yaml",
		FollowRedirects:          true,
		BodyRecordThresholdBytes: 1 << 20,
	}
}

// Load reads YAML configuration from r, merges it over Defaults() (file
// values win), and decodes the result into a Config.
func Load(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var fileValues map[string]interface{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fileValues); err != nil {
			return Config{}, fmt.Errorf("parsing config yaml: %w", err)
		}
	}

	defaults := Defaults()
	var defaultValues map[string]interface{}
	defaultRaw, err := yaml.Marshal(defaults)
	if err != nil {
		return Config{}, fmt.Errorf("marshaling defaults: %w", err)
	}
	if err := yaml.Unmarshal(defaultRaw, &defaultValues); err != nil {
		return Config{}, fmt.Errorf("unmarshaling defaults: %w", err)
	}

	if err := mergo.Merge(&defaultValues, fileValues, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merging config over defaults: %w", err)
	}

	var out Config
	if err := mapstructure.Decode(defaultValues, &out); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return out, nil
}

// LoadFile opens path and loads a Config from it. A missing file is not an
// error; it yields Defaults().
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
