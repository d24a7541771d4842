package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the travelctl configuration from .travelctl.yaml and
// TRAVELCTL_* environment variables.
type Settings struct {
	Server ServerSettings `mapstructure:"server"`
	Output OutputSettings `mapstructure:"output"`
}

type ServerSettings struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OutputSettings struct {
	Color string `mapstructure:"color"`
}

// LoadSettings reads cfgFile when set, otherwise searches the working
// directory and $HOME/.config/travelctl for .travelctl.yaml. A missing file
// is not an error.
func LoadSettings(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".travelctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/travelctl")
	}

	v.SetEnvPrefix("TRAVELCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.url", "http://localhost:9010")
	v.SetDefault("server.timeout", 2*time.Minute)
	v.SetDefault("output.color", "auto")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if _, err := ParseColorMode(s.Output.Color); err != nil {
		return nil, err
	}
	s.Server.URL = strings.TrimRight(s.Server.URL, "/")
	return &s, nil
}
