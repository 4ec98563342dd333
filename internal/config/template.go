package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const exampleConfig = `# galleon configuration
# Every key can be overridden with GALLEON_<SECTION>_<KEY>, e.g. GALLEON_SOURCE_GALLERY.

source:
  tenant_id: "00000000-0000-0000-0000-000000000000"
  subscription_id: "00000000-0000-0000-0000-000000000000"
  resource_group: "rg-images-prod"
  gallery: "gal_prod"

target:
  tenant_id: "00000000-0000-0000-0000-000000000000"
  subscription_id: "00000000-0000-0000-0000-000000000000"
  resource_group: "rg-images-dr"
  gallery: "gal_dr"

authentication:
  # default | interactive | cli
  mode: "default"
  tenant_id: ""
  client_id: ""

filter:
  # prefix | contains, case insensitive. Excludes always win.
  match_mode: "prefix"
  image_includes: []
  image_excludes: []
  version_includes: []
  version_excludes: []

settings:
  dry_run: true
  language: "en-US"
  log_level: "info"
  log_format: "console"
  concurrency: 1
  reports_dir: ""
  html_report: true

webhooks:
  discord:
    enabled: false
    url: ""
    name: "Galleon"
    avatar: ""
`

// ExampleConfig returns the commented template written by "galleon init".
func ExampleConfig() string {
	return exampleConfig
}

// WriteExample writes the template to path unless a file already exists there.
// It reports whether a file was written.
func WriteExample(path string) (bool, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return false, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return false, err
	}
	return true, nil
}
