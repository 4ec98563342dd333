package types

import (
	"fmt"
	"strings"
)

type MatchMode string

const (
	MatchModePrefix   MatchMode = "prefix"
	MatchModeContains MatchMode = "contains"
)

func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchModePrefix:
		return MatchModePrefix, nil
	case MatchModeContains:
		return MatchModeContains, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (valid: prefix, contains)", value)
	}
}

// FilterCriteria decides which definitions and versions take part in a run.
// Empty include lists admit everything; excludes always win.
type FilterCriteria struct {
	ImageIncludes   []string  `yaml:"image_includes" mapstructure:"image_includes" json:"image_includes,omitempty"`
	ImageExcludes   []string  `yaml:"image_excludes" mapstructure:"image_excludes" json:"image_excludes,omitempty"`
	VersionIncludes []string  `yaml:"version_includes" mapstructure:"version_includes" json:"version_includes,omitempty"`
	VersionExcludes []string  `yaml:"version_excludes" mapstructure:"version_excludes" json:"version_excludes,omitempty"`
	MatchMode       MatchMode `yaml:"match_mode" mapstructure:"match_mode" json:"match_mode"`
}

// SplitPatterns turns a comma separated flag value into a pattern list.
func SplitPatterns(value string) []string {
	var patterns []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
