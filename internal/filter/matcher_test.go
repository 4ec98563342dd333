package filter

import (
	"testing"

	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesImageDefinition(t *testing.T) {
	tests := []struct {
		name     string
		image    string
		criteria types.FilterCriteria
		expected bool
	}{
		{
			name:     "no filters admits everything",
			image:    "ubuntu-2204",
			criteria: types.FilterCriteria{MatchMode: types.MatchModePrefix},
			expected: true,
		},
		{
			name:     "prefix include matches",
			image:    "ubuntu-2204",
			criteria: types.FilterCriteria{ImageIncludes: []string{"ubuntu"}, MatchMode: types.MatchModePrefix},
			expected: true,
		},
		{
			name:     "prefix include does not match middle of name",
			image:    "my-ubuntu-2204",
			criteria: types.FilterCriteria{ImageIncludes: []string{"ubuntu"}, MatchMode: types.MatchModePrefix},
			expected: false,
		},
		{
			name:     "contains include matches middle of name",
			image:    "my-ubuntu-2204",
			criteria: types.FilterCriteria{ImageIncludes: []string{"ubuntu"}, MatchMode: types.MatchModeContains},
			expected: true,
		},
		{
			name:     "match is case insensitive",
			image:    "Ubuntu-2204",
			criteria: types.FilterCriteria{ImageIncludes: []string{"UBUNTU"}, MatchMode: types.MatchModePrefix},
			expected: true,
		},
		{
			name:  "exclude wins over include",
			image: "ubuntu-2204-test",
			criteria: types.FilterCriteria{
				ImageIncludes: []string{"ubuntu"},
				ImageExcludes: []string{"test"},
				MatchMode:     types.MatchModeContains,
			},
			expected: false,
		},
		{
			name:     "exclude alone filters matching names",
			image:    "windows-2022",
			criteria: types.FilterCriteria{ImageExcludes: []string{"windows"}, MatchMode: types.MatchModePrefix},
			expected: false,
		},
		{
			name:     "exclude alone keeps other names",
			image:    "ubuntu-2204",
			criteria: types.FilterCriteria{ImageExcludes: []string{"windows"}, MatchMode: types.MatchModePrefix},
			expected: true,
		},
		{
			name:     "version patterns do not affect images",
			image:    "ubuntu-2204",
			criteria: types.FilterCriteria{VersionIncludes: []string{"1.0"}, MatchMode: types.MatchModePrefix},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MatchesImageDefinition(tt.image, &tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMatchesVersion(t *testing.T) {
	criteria := &types.FilterCriteria{
		VersionIncludes: []string{"1."},
		VersionExcludes: []string{"1.0.0"},
		MatchMode:       types.MatchModePrefix,
	}

	ok, err := MatchesVersion("1.2.0", criteria)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MatchesVersion("1.0.0", criteria)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = MatchesVersion("2.0.0", criteria)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEligible_InvalidArguments(t *testing.T) {
	_, err := MatchesImageDefinition("", &types.FilterCriteria{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = MatchesImageDefinition("ubuntu", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = MatchesVersion("1.0.0", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Eligible("ubuntu", []string{"u"}, nil, types.MatchMode("regex"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEligible_MatchesDefinition(t *testing.T) {
	names := []string{"ubuntu-2204", "Windows-2022", "rhel-9", "ubuntu-test"}
	patternSets := [][]string{nil, {"ubuntu"}, {"win", "rhel"}, {"test"}, {"2"}}
	modes := []types.MatchMode{types.MatchModePrefix, types.MatchModeContains}

	for _, mode := range modes {
		for _, includes := range patternSets {
			for _, excludes := range patternSets {
				for _, name := range names {
					excluded, err := MatchesAny(name, excludes, mode)
					require.NoError(t, err)
					included, err := MatchesAny(name, includes, mode)
					require.NoError(t, err)
					expected := !excluded && (len(includes) == 0 || included)

					first, err := Eligible(name, includes, excludes, mode)
					require.NoError(t, err)
					second, err := Eligible(name, includes, excludes, mode)
					require.NoError(t, err)

					assert.Equal(t, expected, first, "name=%s includes=%v excludes=%v mode=%s", name, includes, excludes, mode)
					assert.Equal(t, first, second)
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&types.FilterCriteria{MatchMode: types.MatchModeContains}))
	assert.ErrorIs(t, Validate(nil), ErrInvalidArgument)
	assert.ErrorIs(t, Validate(&types.FilterCriteria{MatchMode: "glob"}), ErrInvalidArgument)
}
