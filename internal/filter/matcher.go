// Package filter decides whether an image definition or version name is in
// scope for a copy run.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kevinfinalboss/galleon/pkg/types"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Eligible applies the exclude list first and then the include list.
// An empty include list admits every name that is not excluded.
func Eligible(name string, includes, excludes []string, mode types.MatchMode) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("%w: name is empty", ErrInvalidArgument)
	}

	excluded, err := MatchesAny(name, excludes, mode)
	if err != nil {
		return false, err
	}
	if excluded {
		return false, nil
	}

	if len(includes) == 0 {
		return true, nil
	}
	return MatchesAny(name, includes, mode)
}

// MatchesAny reports whether name matches at least one pattern, ignoring case.
func MatchesAny(name string, patterns []string, mode types.MatchMode) (bool, error) {
	var match func(s, pattern string) bool
	switch mode {
	case types.MatchModePrefix, "":
		match = strings.HasPrefix
	case types.MatchModeContains:
		match = strings.Contains
	default:
		return false, fmt.Errorf("%w: unknown match mode %q", ErrInvalidArgument, mode)
	}

	lowered := strings.ToLower(name)
	for _, pattern := range patterns {
		if match(lowered, strings.ToLower(pattern)) {
			return true, nil
		}
	}
	return false, nil
}

func MatchesImageDefinition(name string, criteria *types.FilterCriteria) (bool, error) {
	if criteria == nil {
		return false, fmt.Errorf("%w: criteria is nil", ErrInvalidArgument)
	}
	return Eligible(name, criteria.ImageIncludes, criteria.ImageExcludes, criteria.MatchMode)
}

func MatchesVersion(name string, criteria *types.FilterCriteria) (bool, error) {
	if criteria == nil {
		return false, fmt.Errorf("%w: criteria is nil", ErrInvalidArgument)
	}
	return Eligible(name, criteria.VersionIncludes, criteria.VersionExcludes, criteria.MatchMode)
}

// Validate checks criteria before any name is matched against it.
func Validate(criteria *types.FilterCriteria) error {
	if criteria == nil {
		return fmt.Errorf("%w: criteria is nil", ErrInvalidArgument)
	}
	switch criteria.MatchMode {
	case types.MatchModePrefix, types.MatchModeContains, "":
		return nil
	default:
		return fmt.Errorf("%w: unknown match mode %q", ErrInvalidArgument, criteria.MatchMode)
	}
}
