package cli

import (
	"github.com/kevinfinalboss/galleon/internal/config"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/spf13/cobra"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example configuration file",
		Long:  "Creates ~/.galleon/config.yaml (or the --config path) from a commented template. An existing file is left untouched.",
		Args:  cobra.NoArgs,
		// init must work before any configuration exists.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.log == nil {
				a.log = logger.New()
			}
			a.log.Debug("app_started").
				Str("version", Version).
				Str("command", "init").
				Send()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
}

func (a *app) initConfig() error {
	path := a.cfgFile
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			a.log.Error("operation_failed").Err(err).Send()
			return err
		}
		path = defaultPath
	}

	written, err := config.WriteExample(path)
	if err != nil {
		a.log.Error("operation_failed").Str("operation", "init").Err(err).Send()
		return err
	}

	if !written {
		a.log.Warn("config_already_exists").Str("file", path).Send()
		a.printf("Configuration already exists: %s\n", path)
		return nil
	}

	a.log.Info("config_created").Str("file", path).Send()
	a.printf("Configuration written to %s\n", path)
	return nil
}
