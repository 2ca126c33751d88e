package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	PurgeConfig struct {
		Enable            bool     `yaml:"enable"`
		Content           []string `yaml:"content" validate:"dive,required"`
		Whitelist         []string `yaml:"whitelist" validate:"dive,required"`
		WhitelistPatterns []string `yaml:"whitelist_patterns" validate:"dive,required"`
		Keyframes         bool     `yaml:"keyframes"`
		FontFace          bool     `yaml:"font_face"`
	}

	BuildConfig struct {
		DesignPath            string      `yaml:"design_path" sanitize:"assure_file_access"`
		OutputNameTemplate    string      `yaml:"output_name_template"`
		FileNameTransliterate bool        `yaml:"file_name_transliterate"`
		Concurrency           int         `yaml:"concurrency" validate:"gte=0,lte=256"`
		Purge                 PurgeConfig `yaml:"purge"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Build     BuildConfig    `yaml:"build"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// NOTE: must match yaml field name above
const OutputNameTemplateFieldName TemplateFieldName = "output_name_template"

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// checkConfig performs validation which cannot be expressed with tags.
func checkConfig(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Build.Purge.Enable && len(cfg.Build.Purge.Content) == 0 {
		sl.ReportError(cfg.Build.Purge.Content, "Content", "content", "required_with_purge", "")
	}
	for _, p := range cfg.Build.Purge.WhitelistPatterns {
		if _, err := regexp.Compile(p); err != nil {
			sl.ReportError(cfg.Build.Purge.WhitelistPatterns, "WhitelistPatterns", "whitelist_patterns", "regexp", p)
		}
	}
}

// CompiledWhitelist returns compiled purge whitelist expressions. Patterns
// are checked during validation so errors here are unexpected.
func (conf *PurgeConfig) CompiledWhitelist() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(conf.WhitelistPatterns))
	for _, p := range conf.WhitelistPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad whitelist pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
