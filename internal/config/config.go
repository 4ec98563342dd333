package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "GALLEON"

// Configuration keys, usable with BindFlag and as GALLEON_<KEY> variables
// with dots replaced by underscores.
const (
	KeySourceTenant         = "source.tenant_id"
	KeySourceSubscription   = "source.subscription_id"
	KeySourceResourceGroup  = "source.resource_group"
	KeySourceGallery        = "source.gallery"
	KeyTargetTenant         = "target.tenant_id"
	KeyTargetSubscription   = "target.subscription_id"
	KeyTargetResourceGroup  = "target.resource_group"
	KeyTargetGallery        = "target.gallery"
	KeyAuthTenant           = "authentication.tenant_id"
	KeyAuthClient           = "authentication.client_id"
	KeyAuthMode             = "authentication.mode"
	KeyImageIncludes        = "filter.image_includes"
	KeyImageExcludes        = "filter.image_excludes"
	KeyVersionIncludes      = "filter.version_includes"
	KeyVersionExcludes      = "filter.version_excludes"
	KeyMatchMode            = "filter.match_mode"
	KeyDryRun               = "settings.dry_run"
	KeyLogLevel             = "settings.log_level"
	KeyLogFormat            = "settings.log_format"
	KeyLanguage             = "settings.language"
	KeyConcurrency          = "settings.concurrency"
	KeyReportsDir           = "settings.reports_dir"
	KeyHTMLReport           = "settings.html_report"
	KeyDiscordEnabled       = "webhooks.discord.enabled"
	KeyDiscordURL           = "webhooks.discord.url"
	KeyDiscordName          = "webhooks.discord.name"
	KeyDiscordAvatar        = "webhooks.discord.avatar"
	defaultLanguage         = "en-US"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultConcurrency      = 1
	defaultDiscordName      = "Galleon"
	defaultAuthMode         = "default"
	defaultConfigDirName    = ".galleon"
	defaultConfigFileName   = "config.yaml"
	defaultReportsDirSuffix = "reports"
)

var ErrConfigNotFound = errors.New("configuration file not found")

// Loader resolves configuration from defaults, a YAML file, GALLEON_*
// environment variables and bound command-line flags, lowest first.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	for _, key := range []string{
		KeySourceTenant, KeySourceSubscription, KeySourceResourceGroup, KeySourceGallery,
		KeyTargetTenant, KeyTargetSubscription, KeyTargetResourceGroup, KeyTargetGallery,
		KeyAuthTenant, KeyAuthClient, KeyReportsDir, KeyDiscordURL, KeyDiscordAvatar,
	} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{KeyImageIncludes, KeyImageExcludes, KeyVersionIncludes, KeyVersionExcludes} {
		v.SetDefault(key, []string{})
	}

	v.SetDefault(KeyAuthMode, defaultAuthMode)
	v.SetDefault(KeyMatchMode, string(types.MatchModePrefix))
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)
	v.SetDefault(KeyLanguage, defaultLanguage)
	v.SetDefault(KeyConcurrency, defaultConcurrency)
	v.SetDefault(KeyHTMLReport, true)
	v.SetDefault(KeyDiscordEnabled, false)
	v.SetDefault(KeyDiscordName, defaultDiscordName)
}

// BindFlag lets an explicitly set flag override every other source for key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads configFile, or the default path when empty. A missing default
// file is not an error; a missing explicit file is.
func (l *Loader) Load(configFile string) (*types.Config, error) {
	explicit := configFile != ""
	if !explicit {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configFile = path
	}

	if _, err := os.Stat(configFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configFile)
		}
	} else {
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	}

	var cfg types.Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file that was read, or "" when only defaults,
// environment and flags were used.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func Load(configFile string) (*types.Config, error) {
	return NewLoader().Load(configFile)
}

func applyDefaults(cfg *types.Config) error {
	mode, err := types.ParseMatchMode(string(cfg.Filter.MatchMode))
	if err == nil {
		cfg.Filter.MatchMode = mode
	}

	if cfg.Settings.Language == "" {
		cfg.Settings.Language = defaultLanguage
	}
	if cfg.Settings.LogLevel == "" {
		cfg.Settings.LogLevel = defaultLogLevel
	}
	if cfg.Settings.Concurrency == 0 {
		cfg.Settings.Concurrency = defaultConcurrency
	}
	if cfg.Settings.ReportsDir == "" {
		dir, err := DefaultReportsDir()
		if err != nil {
			return err
		}
		cfg.Settings.ReportsDir = dir
	}
	if cfg.Webhooks.Discord.Name == "" {
		cfg.Webhooks.Discord.Name = defaultDiscordName
	}
	return nil
}

func GetDefaultConfig() *types.Config {
	cfg := &types.Config{
		Authentication: types.AuthenticationConfig{Mode: defaultAuthMode},
		Filter:         types.FilterCriteria{MatchMode: types.MatchModePrefix},
		Settings: types.SettingsConfig{
			Language:    defaultLanguage,
			LogLevel:    defaultLogLevel,
			LogFormat:   defaultLogFormat,
			Concurrency: defaultConcurrency,
			HTMLReport:  true,
		},
		Webhooks: types.WebhookConfig{
			Discord: types.DiscordWebhookConfig{Name: defaultDiscordName},
		},
	}
	_ = applyDefaults(cfg)
	return cfg
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultConfigDirName), nil
}

func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultConfigFileName), nil
}

func DefaultReportsDir() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultReportsDirSuffix), nil
}

func Save(cfg *types.Config, configFile string) error {
	if configFile == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		configFile = path
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configFile, data, 0644)
}
