package runtime

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-bridge/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Cause(err).
			Detail("invalid runtime config").
			Build()
	}
	return nil
}

// ParseConfig decodes a YAML document into a Config and validates it.
// Unknown keys are rejected. An empty document yields the zero Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Cause(err).
			Detail("decode config").
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("read config").
			Build()
	}
	return ParseConfig(data)
}
