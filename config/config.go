package config

import (
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler"
)

// Config is the compiler configuration.
// Sources in increasing priority: defaults, yaml file, .env file, environment.
type Config struct {
	Target   string `yaml:"target"`
	Entry    string `yaml:"entry"`
	Comments bool   `yaml:"comments"`
	Color    string `yaml:"color"` // auto, always or never
}

const (
	EnvTarget   = "EXPRC_TARGET"
	EnvEntry    = "EXPRC_ENTRY"
	EnvComments = "EXPRC_COMMENTS"
	EnvColor    = "EXPRC_COLOR"
)

var ErrConfigValidation = errors.New("configuration validation failed")

func Default() *Config {
	return &Config{
		Target: compiler.DefaultTarget,
		Entry:  compiler.DefaultEntry,
		Color:  "auto",
	}
}

// Load reads the config file at path and the dotenv file, then applies the environment.
// Empty path skips the file. A missing dotenv file is not an error.
func Load(path, dotenv string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}

		err = yaml.UnmarshalWithOptions(data, c, yaml.Strict())
		if err != nil {
			return nil, errors.Wrap(err, "parse config %v", path)
		}
	}

	env := map[string]string{}

	if dotenv != "" {
		vars, err := godotenv.Read(dotenv)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read %v", dotenv)
		}

		for k, v := range vars {
			env[k] = v
		}
	}

	for _, k := range []string{EnvTarget, EnvEntry, EnvComments, EnvColor} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}

	err := c.apply(env)
	if err != nil {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) apply(env map[string]string) error {
	if v, ok := env[EnvTarget]; ok {
		c.Target = v
	}

	if v, ok := env[EnvEntry]; ok {
		c.Entry = v
	}

	if v, ok := env[EnvColor]; ok {
		c.Color = v
	}

	if v, ok := env[EnvComments]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "%v", EnvComments)
		}

		c.Comments = b
	}

	return nil
}

func (c *Config) Validate() error {
	if _, ok := compiler.Targets[c.Target]; !ok {
		return errors.Wrap(ErrConfigValidation, "unsupported target %q", c.Target)
	}

	if !compiler.ValidSymbol(c.Entry) {
		return errors.Wrap(ErrConfigValidation, "bad entry symbol %q", c.Entry)
	}

	switch c.Color {
	case "auto", "always", "never":
	default:
		return errors.Wrap(ErrConfigValidation, "color must be auto, always or never, got %q", c.Color)
	}

	return nil
}

// Options converts the config into compiler options.
func (c *Config) Options() compiler.Options {
	return compiler.Options{
		Target:   c.Target,
		Entry:    c.Entry,
		Comments: c.Comments,
	}
}
