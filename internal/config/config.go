// Package config loads tool settings for synthsweep: which engine and
// converter binaries to run, the engine's on-disk layout, report template
// lookup, worker count, ledger path and publication target. Settings come
// from an optional synthsweep.yaml, SYNTHSWEEP_* environment variables and
// command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/publish"
	"github.com/roach88/synthsweep/internal/report"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SYNTHSWEEP"

// FileName is the settings file searched for when no path is given.
const FileName = "synthsweep"

// Settings holds the tool configuration.
type Settings struct {
	Engine struct {
		Binary    string        `mapstructure:"binary"`
		Args      []string      `mapstructure:"args"`
		Stage     string        `mapstructure:"stage"`
		StateFile string        `mapstructure:"state_file"`
		Marker    string        `mapstructure:"marker"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"engine"`
	Converter struct {
		Binary  string        `mapstructure:"binary"`
		Format  string        `mapstructure:"format"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"converter"`
	Report struct {
		Template     string   `mapstructure:"template"`
		TemplateDirs []string `mapstructure:"template_dirs"`
	} `mapstructure:"report"`
	Artifacts []ArtifactSetting `mapstructure:"artifacts"`
	Jobs      int               `mapstructure:"jobs"`
	DB        string            `mapstructure:"db"`
	Publish   struct {
		Enabled   bool   `mapstructure:"enabled"`
		Endpoint  string `mapstructure:"endpoint"`
		Bucket    string `mapstructure:"bucket"`
		Prefix    string `mapstructure:"prefix"`
		Region    string `mapstructure:"region"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	} `mapstructure:"publish"`

	// File is the settings file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ArtifactSetting overrides one artifact kind.
type ArtifactSetting struct {
	Name  string `mapstructure:"name"`
	File  string `mapstructure:"file"`
	Graph bool   `mapstructure:"graph"`
}

// SetDefaults registers every key with its default so environment
// overrides and flag bindings resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.binary", flow.DefaultEngineBinary)
	v.SetDefault("engine.args", flow.DefaultEngineArgs)
	v.SetDefault("engine.stage", flow.DefaultStage)
	v.SetDefault("engine.state_file", flow.DefaultStateFile)
	v.SetDefault("engine.marker", flow.DefaultMarkerFile)
	v.SetDefault("engine.timeout", time.Duration(0))
	v.SetDefault("converter.binary", artifact.DefaultConverterBinary)
	v.SetDefault("converter.format", artifact.DefaultImageFormat)
	v.SetDefault("converter.timeout", time.Minute)
	v.SetDefault("report.template", report.DefaultTemplate)
	v.SetDefault("report.template_dirs", []string{})
	v.SetDefault("jobs", 1)
	v.SetDefault("db", "")
	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.region", "")
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.use_ssl", false)
}

// Load reads settings into v and decodes them. An explicit path must exist;
// otherwise synthsweep.yaml is looked up in the working directory and in
// $HOME/.config/synthsweep, and its absence is not an error.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.File = v.ConfigFileUsed()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings that cannot be defaulted.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Engine.Binary) == "" {
		return errors.New("settings: engine.binary must not be empty")
	}
	if s.Jobs < 1 {
		return fmt.Errorf("settings: jobs must be at least 1, got %d", s.Jobs)
	}
	if s.Engine.Timeout < 0 || s.Converter.Timeout < 0 {
		return errors.New("settings: timeouts must not be negative")
	}
	if len(s.Artifacts) > 0 {
		if err := artifact.ValidateKinds(s.ArtifactKinds()); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	if s.Publish.Enabled {
		if err := s.PublishConfig().Validate(); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	return nil
}

// Layout returns the engine layout rooted at designDir.
func (s *Settings) Layout(designDir string) flow.Layout {
	return flow.Layout{
		DesignDir:  designDir,
		Stage:      s.Engine.Stage,
		StateFile:  s.Engine.StateFile,
		MarkerFile: s.Engine.Marker,
	}
}

// ArtifactKinds returns the configured kinds, or the defaults.
func (s *Settings) ArtifactKinds() []artifact.Kind {
	if len(s.Artifacts) == 0 {
		return artifact.DefaultKinds
	}
	kinds := make([]artifact.Kind, len(s.Artifacts))
	for i, a := range s.Artifacts {
		kinds[i] = artifact.Kind{Name: a.Name, File: a.File, Graph: a.Graph}
	}
	return kinds
}

// PublishConfig returns the object store settings.
func (s *Settings) PublishConfig() publish.Config {
	p := s.Publish
	return publish.Config{
		Endpoint:  p.Endpoint,
		Bucket:    p.Bucket,
		Prefix:    p.Prefix,
		Region:    p.Region,
		AccessKey: p.AccessKey,
		SecretKey: p.SecretKey,
		UseSSL:    p.UseSSL,
	}
}
