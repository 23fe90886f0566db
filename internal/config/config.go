package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads a YAML config file, overlays TRADEPILOT_* environment variables
// (e.g. TRADEPILOT_EXCHANGE_API_KEY), applies defaults and validates.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRADEPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvKeys makes secret-bearing keys visible to viper even when the YAML
// file omits them entirely (AutomaticEnv only covers keys viper knows about).
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"exchange.api_key",
		"exchange.api_secret",
		"oracle.api_key",
		"news.api_key",
		"notify.telegram.bot_token",
		"notify.telegram.chat_id",
	} {
		_ = v.BindEnv(key)
	}
}
