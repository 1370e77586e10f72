package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/ttpr0/go-transit/parser"
	"github.com/ttpr0/go-transit/preproc"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

//**********************************************************
// config
//**********************************************************

// ReadConfig reads the yaml config, applies GOTRANSIT_* environment
// overrides (including those from a .env file) and validates the result.
// A missing config file leaves the defaults in place.
func ReadConfig(file string) (Config, error) {
	slog.Info("Reading config file")
	// .env is optional
	_ = godotenv.Load()

	config := DefaultConfig()
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to parse config file %v: %w", file, err)
		}
	case os.IsNotExist(err):
		slog.Warn(fmt.Sprintf("config file %v not found, using defaults", file))
	default:
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := config._ApplyEnv(); err != nil {
		return config, err
	}
	if err := validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

type Config struct {
	Build    BuildConfig   `yaml:"build"`
	Model    ModelConfig   `yaml:"model"`
	Services ServiceConfig `yaml:"services"`
	LogLevel string        `yaml:"log-level" validate:"oneof=debug info warn error"`
}

type BuildConfig struct {
	Source          parser.SourceOptions `yaml:"source"`
	TransferTime    int32                `yaml:"transfer-time" validate:"gte=0,lte=3600"`
	MaxWalkDistance float64              `yaml:"max-walk-distance" validate:"gte=0"`
	WalkSpeed       float64              `yaml:"walk-speed" validate:"gt=0"`
	WalkEdges       bool                 `yaml:"walk-edges"`
}

type ModelConfig struct {
	Path           string `yaml:"path" validate:"required"`
	Mmap           bool   `yaml:"mmap"`
	VerifyChecksum bool   `yaml:"verify-checksum"`
	// build the model from the source when it cannot be loaded
	BuildMissing bool `yaml:"build-missing"`
}

type ServiceConfig struct {
	Listen      string  `yaml:"listen" validate:"required,hostname_port"`
	Metrics     bool    `yaml:"metrics"`
	MaxResults  int     `yaml:"max-results" validate:"gte=1"`
	MaxDistance float64 `yaml:"max-distance" validate:"gt=0"`
	MaxStops    int     `yaml:"max-stops" validate:"gte=1"`
}

func DefaultConfig() Config {
	build := preproc.DefaultBuildOptions()
	return Config{
		Build: BuildConfig{
			Source:          parser.SourceOptions{Type: parser.SOURCE_ZIP, Path: "./data/gtfs.zip"},
			TransferTime:    build.TransferTime,
			MaxWalkDistance: build.MaxWalkDistance,
			WalkSpeed:       build.WalkSpeed,
			WalkEdges:       build.WalkEdges,
		},
		Model: ModelConfig{
			Path:           "./models/transit",
			Mmap:           true,
			VerifyChecksum: true,
			BuildMissing:   true,
		},
		Services: ServiceConfig{
			Listen:      ":5002",
			Metrics:     true,
			MaxResults:  20,
			MaxDistance: 500,
			MaxStops:    5,
		},
		LogLevel: "info",
	}
}

func (self Config) BuildOptions() preproc.BuildOptions {
	return preproc.BuildOptions{
		TransferTime:    self.Build.TransferTime,
		MaxWalkDistance: self.Build.MaxWalkDistance,
		WalkSpeed:       self.Build.WalkSpeed,
		WalkEdges:       self.Build.WalkEdges,
	}
}

//**********************************************************
// environment overrides
//**********************************************************

const ENV_PREFIX = "GOTRANSIT_"

func (self *Config) _ApplyEnv() error {
	str := func(name string, target *string) {
		if v, ok := os.LookupEnv(ENV_PREFIX + name); ok && v != "" {
			*target = v
		}
	}
	str("SOURCE_PATH", &self.Build.Source.Path)
	if v, ok := os.LookupEnv(ENV_PREFIX + "SOURCE_TYPE"); ok && v != "" {
		self.Build.Source.Type = parser.SourceType(strings.ToLower(v))
	}
	// DATABASE_URL is used when no explicit source path is set
	if self.Build.Source.Type == parser.SOURCE_POSTGRES {
		if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" && os.Getenv(ENV_PREFIX+"SOURCE_PATH") == "" {
			self.Build.Source.Path = v
		}
	}
	str("MODEL_PATH", &self.Model.Path)
	str("LISTEN", &self.Services.Listen)
	str("LOG_LEVEL", &self.LogLevel)
	self.LogLevel = strings.ToLower(self.LogLevel)
	if v, ok := os.LookupEnv(ENV_PREFIX + "WALK_EDGES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %vWALK_EDGES: %q", ENV_PREFIX, v)
		}
		self.Build.WalkEdges = b
	}
	if v, ok := os.LookupEnv(ENV_PREFIX + "MAX_RESULTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %vMAX_RESULTS: %q", ENV_PREFIX, v)
		}
		self.Services.MaxResults = n
	}
	return nil
}
