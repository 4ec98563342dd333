package types

type AuthenticationConfig struct {
	TenantID string `yaml:"tenant_id" mapstructure:"tenant_id"`
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Mode     string `yaml:"mode" mapstructure:"mode"`
}

type SettingsConfig struct {
	Language    string `yaml:"language" mapstructure:"language"`
	LogLevel    string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat   string `yaml:"log_format" mapstructure:"log_format"`
	DryRun      bool   `yaml:"dry_run" mapstructure:"dry_run"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	ReportsDir  string `yaml:"reports_dir" mapstructure:"reports_dir"`
	HTMLReport  bool   `yaml:"html_report" mapstructure:"html_report"`
}

type DiscordWebhookConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	URL     string `yaml:"url" mapstructure:"url"`
	Name    string `yaml:"name" mapstructure:"name"`
	Avatar  string `yaml:"avatar" mapstructure:"avatar"`
}

type WebhookConfig struct {
	Discord DiscordWebhookConfig `yaml:"discord" mapstructure:"discord"`
}

type Config struct {
	Source         GalleryContext       `yaml:"source" mapstructure:"source"`
	Target         GalleryContext       `yaml:"target" mapstructure:"target"`
	Authentication AuthenticationConfig `yaml:"authentication" mapstructure:"authentication"`
	Filter         FilterCriteria       `yaml:"filter" mapstructure:"filter"`
	Settings       SettingsConfig       `yaml:"settings" mapstructure:"settings"`
	Webhooks       WebhookConfig        `yaml:"webhooks" mapstructure:"webhooks"`
}
