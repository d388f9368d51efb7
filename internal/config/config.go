// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEnvFile is read from the working directory when no other file is given.
const DefaultEnvFile = ".env"

const (
	DefaultTimeout        = 20 * time.Second
	DefaultPort           = 5173
	DefaultStaticRoot     = "."
	DefaultDescriptionMin = 20
	DefaultDescriptionMax = 2000
)

// Config holds all configuration parameters for the application.
type Config struct {
	Flow   FlowConfig
	Server ServerConfig
	Form   FormConfig
}

// FlowConfig holds the case-creation webhook settings.
type FlowConfig struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Port int
	Root string
}

// FormConfig holds form validation settings.
type FormConfig struct {
	DescriptionMin int
	DescriptionMax int
	CatalogFile    string
}

// setting describes one configuration key: the env var names checked in the
// process environment and the lowercased keys looked up in the env file.
type setting struct {
	key  string
	envs []string
}

var (
	flowURL        = setting{key: "flow.url", envs: []string{"VITE_FLOW_URL", "FLOW_URL"}}
	flowKey        = setting{key: "flow.key", envs: []string{"VITE_FLOW_KEY", "FLOW_KEY"}}
	flowTimeout    = setting{key: "flow.timeout", envs: []string{"FLOW_TIMEOUT"}}
	serverPort     = setting{key: "server.port", envs: []string{"PORT"}}
	serverRoot     = setting{key: "server.root", envs: []string{"STATIC_ROOT"}}
	descriptionMin = setting{key: "form.description_min", envs: []string{"DESCRIPTION_MIN"}}
	descriptionMax = setting{key: "form.description_max", envs: []string{"DESCRIPTION_MAX"}}
	catalogFile    = setting{key: "form.catalog_file", envs: []string{"CATEGORIES_FILE"}}
)

// LoadConfig loads configuration from envFile (dotenv format) and the process
// environment. Values in the file win over the environment. A missing file is
// only an error when it is not the default one.
func LoadConfig(envFile string) (*Config, error) {
	fileV, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	envV := viper.New()
	for _, s := range []setting{flowURL, flowKey, flowTimeout, serverPort, serverRoot, descriptionMin, descriptionMax, catalogFile} {
		args := append([]string{s.key}, s.envs...)
		if err := envV.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.key, err)
		}
	}
	envV.SetDefault(serverRoot.key, DefaultStaticRoot)

	// Copy file values over the environment, preserving precedence
	for _, s := range []setting{flowURL, flowKey, flowTimeout, serverPort, serverRoot, descriptionMin, descriptionMax, catalogFile} {
		for _, name := range s.envs {
			if value := strings.TrimSpace(fileV.GetString(strings.ToLower(name))); value != "" {
				envV.Set(s.key, value)
				break
			}
		}
	}

	p := parser{v: envV}
	config := &Config{
		Flow: FlowConfig{
			URL:     strings.TrimSpace(envV.GetString(flowURL.key)),
			Key:     strings.TrimSpace(envV.GetString(flowKey.key)),
			Timeout: p.duration(flowTimeout, DefaultTimeout),
		},
		Server: ServerConfig{
			Port: p.integer(serverPort, DefaultPort),
			Root: envV.GetString(serverRoot.key),
		},
		Form: FormConfig{
			DescriptionMin: p.integer(descriptionMin, DefaultDescriptionMin),
			DescriptionMax: p.integer(descriptionMax, DefaultDescriptionMax),
			CatalogFile:    strings.TrimSpace(envV.GetString(catalogFile.key)),
		},
	}

	if len(p.problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(p.problems, "; "))
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// parser reads typed settings from their raw strings. viper's own casts turn
// "abc" into 0 and a unitless "20000" into nanoseconds, so values are parsed
// strictly and every malformed one is reported.
type parser struct {
	v        *viper.Viper
	problems []string
}

func (p *parser) raw(s setting) string {
	return strings.TrimSpace(p.v.GetString(s.key))
}

func (p *parser) integer(s setting, def int) int {
	raw := p.raw(s)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s %q is not an integer", s.envs[0], raw))
		return def
	}
	return n
}

func (p *parser) duration(s setting, def time.Duration) time.Duration {
	raw := p.raw(s)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s %q is not a duration with a unit such as 20s", s.envs[0], raw))
		return def
	}
	return d
}

func readEnvFile(envFile string) (*viper.Viper, error) {
	v := viper.New()
	if envFile == "" {
		return v, nil
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) && envFile == DefaultEnvFile {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}
	return v, nil
}

// validateConfig checks value ranges. The flow URL is optional here since the
// dev server can run without it; see ValidateFlowConfig.
func validateConfig(config *Config) error {
	var problems []string

	if config.Flow.Timeout <= 0 {
		problems = append(problems, "FLOW_TIMEOUT must be positive")
	}
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d must be 0..65535", config.Server.Port))
	}
	if config.Form.DescriptionMin < 1 {
		problems = append(problems, "DESCRIPTION_MIN must be at least 1")
	}
	if config.Form.DescriptionMax < config.Form.DescriptionMin {
		problems = append(problems, "DESCRIPTION_MAX must not be below DESCRIPTION_MIN")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateFlowConfig validates the settings needed to submit cases.
func ValidateFlowConfig(config *Config) error {
	if config.Flow.URL == "" {
		return fmt.Errorf("missing required environment variables: [VITE_FLOW_URL]")
	}
	return nil
}
