package config

import (
	"regexp"
	"strings"

	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

const (
	maxResourceGroupLength = 90
	maxGalleryNameLength   = 80
)

var (
	guidPattern          = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	resourceGroupPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.()]+$`)
	galleryNamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validLogFormats  = []string{"console", "json"}
	validLanguages   = []string{"en-US", "ja-JP"}
	validAuthModes   = []string{gallery.AuthModeDefault, gallery.AuthModeInteractive, gallery.AuthModeCLI}
	validMatchModes  = []string{string(types.MatchModePrefix), string(types.MatchModeContains)}
	logLevelAliasMap = map[string]string{"information": "info", "warning": "warn", "trace": "debug", "critical": "error"}
)

// Validate checks everything a copy run needs before it touches Azure.
func Validate(cfg *types.Config) field.ErrorList {
	var errs field.ErrorList

	errs = append(errs, validateGallery(field.NewPath("source"), cfg.Source)...)
	errs = append(errs, validateGallery(field.NewPath("target"), cfg.Target)...)

	if cfg.Source.TenantID != "" && cfg.Target.TenantID != "" &&
		!strings.EqualFold(cfg.Source.TenantID, cfg.Target.TenantID) {
		errs = append(errs, field.Invalid(field.NewPath("target", "tenant_id"), cfg.Target.TenantID,
			"source and target must belong to the same tenant"))
	}

	errs = append(errs, validateAuthentication(field.NewPath("authentication"), cfg)...)
	errs = append(errs, ValidateSettings(cfg)...)

	if _, err := types.ParseMatchMode(string(cfg.Filter.MatchMode)); err != nil {
		errs = append(errs, field.NotSupported(field.NewPath("filter", "match_mode"), cfg.Filter.MatchMode, validMatchModes))
	}

	return errs
}

// ValidateSettings covers the parts of the configuration that commands not
// talking to a gallery still depend on.
func ValidateSettings(cfg *types.Config) field.ErrorList {
	var errs field.ErrorList
	settings := field.NewPath("settings")

	if !contains(validLogLevels, normalizeLogLevel(cfg.Settings.LogLevel)) {
		errs = append(errs, field.NotSupported(settings.Child("log_level"), cfg.Settings.LogLevel, validLogLevels))
	}
	if cfg.Settings.LogFormat != "" && !contains(validLogFormats, strings.ToLower(cfg.Settings.LogFormat)) {
		errs = append(errs, field.NotSupported(settings.Child("log_format"), cfg.Settings.LogFormat, validLogFormats))
	}
	if cfg.Settings.Language != "" && !containsFold(validLanguages, cfg.Settings.Language) {
		errs = append(errs, field.NotSupported(settings.Child("language"), cfg.Settings.Language, validLanguages))
	}
	if cfg.Settings.Concurrency < 1 {
		errs = append(errs, field.Invalid(settings.Child("concurrency"), cfg.Settings.Concurrency, "must be at least 1"))
	}

	discord := field.NewPath("webhooks", "discord")
	if cfg.Webhooks.Discord.Enabled && cfg.Webhooks.Discord.URL == "" {
		errs = append(errs, field.Required(discord.Child("url"), "required when the Discord webhook is enabled"))
	}
	return errs
}

func validateGallery(path *field.Path, gc types.GalleryContext) field.ErrorList {
	var errs field.ErrorList

	if gc.TenantID != "" && !guidPattern.MatchString(gc.TenantID) {
		errs = append(errs, field.Invalid(path.Child("tenant_id"), gc.TenantID, "must be a GUID"))
	}

	switch {
	case gc.SubscriptionID == "":
		errs = append(errs, field.Required(path.Child("subscription_id"), ""))
	case !guidPattern.MatchString(gc.SubscriptionID):
		errs = append(errs, field.Invalid(path.Child("subscription_id"), gc.SubscriptionID, "must be a GUID"))
	}

	switch {
	case gc.ResourceGroup == "":
		errs = append(errs, field.Required(path.Child("resource_group"), ""))
	case len(gc.ResourceGroup) > maxResourceGroupLength:
		errs = append(errs, field.TooLong(path.Child("resource_group"), gc.ResourceGroup, maxResourceGroupLength))
	case !resourceGroupPattern.MatchString(gc.ResourceGroup):
		errs = append(errs, field.Invalid(path.Child("resource_group"), gc.ResourceGroup,
			"may contain only letters, digits, '-', '_', '.', '(' and ')'"))
	}

	switch {
	case gc.GalleryName == "":
		errs = append(errs, field.Required(path.Child("gallery"), ""))
	case len(gc.GalleryName) > maxGalleryNameLength:
		errs = append(errs, field.TooLong(path.Child("gallery"), gc.GalleryName, maxGalleryNameLength))
	case !galleryNamePattern.MatchString(gc.GalleryName):
		errs = append(errs, field.Invalid(path.Child("gallery"), gc.GalleryName,
			"may contain only letters, digits, '_' and '.'"))
	}

	return errs
}

func validateAuthentication(path *field.Path, cfg *types.Config) field.ErrorList {
	var errs field.ErrorList
	auth := cfg.Authentication

	if auth.Mode != "" && !contains(validAuthModes, strings.ToLower(auth.Mode)) {
		errs = append(errs, field.NotSupported(path.Child("mode"), auth.Mode, validAuthModes))
	}
	if auth.TenantID != "" {
		if !guidPattern.MatchString(auth.TenantID) {
			errs = append(errs, field.Invalid(path.Child("tenant_id"), auth.TenantID, "must be a GUID"))
		} else if cfg.Source.TenantID != "" && !strings.EqualFold(auth.TenantID, cfg.Source.TenantID) {
			errs = append(errs, field.Invalid(path.Child("tenant_id"), auth.TenantID,
				"must match the source tenant"))
		}
	}
	if auth.ClientID != "" && !guidPattern.MatchString(auth.ClientID) {
		errs = append(errs, field.Invalid(path.Child("client_id"), auth.ClientID, "must be a GUID"))
	}
	return errs
}

func normalizeLogLevel(level string) string {
	level = strings.ToLower(level)
	if alias, ok := logLevelAliasMap[level]; ok {
		return alias
	}
	return level
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
