package cli

import (
	"io/ioutil"

	"github.com/caarlos0/env"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Config is the configuration of the command-line frontend. The values come
// from the configuration file first, then the environment, then the flags,
// each layer overriding the previous one.
type Config struct {
	// Secret is the shared secret used to sign and verify the envelopes.
	Secret string `env:"HARVEST_SECRET" yaml:"secret"`

	// DBPath is the path of the database holding the journal.
	DBPath string `env:"HARVEST_DB" yaml:"db"`

	// Confirmations is the confirmation threshold of the submissions.
	Confirmations int `env:"HARVEST_CONFIRMATIONS" yaml:"confirmations"`

	// MaxRetries is the retry budget of the submissions.
	MaxRetries int `env:"HARVEST_MAX_RETRIES" yaml:"maxRetries"`
}

// LoadConfig returns the configuration assembled from the optional YAML file
// and the environment.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		DBPath: "harvest.db",
	}

	if path != "" {
		buffer, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, xerrors.Errorf("failed to read config: %v", err)
		}

		err = yaml.Unmarshal(buffer, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to parse config: %v", err)
		}
	}

	err := env.Parse(&cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to read environment: %v", err)
	}

	return cfg, nil
}
