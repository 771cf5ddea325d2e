package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ontoforge/internal/origin"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "ontoforge.yaml"

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `yaml:"use_path_style"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key" validate:"required_with=AccessKey"`
}

type Config struct {
	Inputs []string `yaml:"inputs" validate:"required,min=1,dive,required"`
	Output struct {
		Dir string `yaml:"dir" validate:"required"`
	} `yaml:"output"`
	Origins   []origin.Origin `yaml:"origins" validate:"required,min=1,dive"`
	Hierarchy struct {
		RootCandidates []string `yaml:"root_candidates"`
	} `yaml:"hierarchy"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error fatal"`
	} `yaml:"log"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Publish struct {
		Enabled bool     `yaml:"enabled"`
		S3      S3Config `yaml:"s3"`
	} `yaml:"publish"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Inputs:  []string{"ontologies/**/*.ttl"},
		Origins: origin.Defaults(),
	}
	cfg.Output.Dir = "data"
	cfg.Hierarchy.RootCandidates = []string{"Capability", "Category", "Component", "DeprecatedClass", "LOV", "uuid"}
	cfg.Log.Level = "info"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config; a missing file keeps the defaults
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dir := os.Getenv("ONTOFORGE_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if inputs := os.Getenv("ONTOFORGE_INPUTS"); inputs != "" {
		cfg.Inputs = splitList(inputs)
	}
	if level := os.Getenv("ONTOFORGE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if path := os.Getenv("ONTOFORGE_SQLITE_PATH"); path != "" {
		cfg.Storage.SQLitePath = path
	}
	if path := os.Getenv("ONTOFORGE_METRICS_TEXTFILE"); path != "" {
		cfg.Metrics.Textfile = path
	}
	if bucket := os.Getenv("ONTOFORGE_S3_BUCKET"); bucket != "" {
		cfg.Publish.S3.Bucket = bucket
	}
	if prefix := os.Getenv("ONTOFORGE_S3_PREFIX"); prefix != "" {
		cfg.Publish.S3.Prefix = prefix
	}
	if endpoint := os.Getenv("ONTOFORGE_S3_ENDPOINT"); endpoint != "" {
		cfg.Publish.S3.Endpoint = endpoint
	}
	if key := os.Getenv("AWS_ACCESS_KEY"); key != "" {
		cfg.Publish.S3.AccessKey = key
	}
	if secret := os.Getenv("AWS_SECRET_KEY"); secret != "" {
		cfg.Publish.S3.SecretKey = secret
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks struct tags and the origin set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := origin.NewSet(c.Origins); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Publish.Enabled && c.Publish.S3.Bucket == "" {
		return fmt.Errorf("%w: publish.enabled requires publish.s3.bucket", ErrInvalid)
	}
	return nil
}

// OriginSet builds the configured origin set.
func (c *Config) OriginSet() (*origin.Set, error) {
	set, err := origin.NewSet(c.Origins)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return set, nil
}
