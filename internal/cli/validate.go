package cli

import (
	"github.com/kevinfinalboss/galleon/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and check access to both galleries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd)
		},
	}
}

func (a *app) runValidate(cmd *cobra.Command) error {
	if errs := config.Validate(a.cfg); len(errs) > 0 {
		a.printValidationErrors(errs.ToAggregate().Errors())
		a.log.Error("config_invalid").Int("errors", len(errs)).Send()
		return &ExitError{Code: ExitValidation, Err: errs.ToAggregate()}
	}
	a.printf("Configuration is valid.\n")

	catalog, err := a.newCatalog(a.cfg, a.log)
	if err != nil {
		a.log.Error("connectivity_failed").Err(err).Send()
		return &ExitError{Code: ExitUnexpected, Err: err}
	}

	ctx := a.context(cmd)
	for _, role := range []string{"source", "target"} {
		gc := a.cfg.Source
		if role == "target" {
			gc = a.cfg.Target
		}

		g, err := catalog.GetGallery(ctx, gc)
		if err != nil {
			a.log.Error("connectivity_failed").
				Str("role", role).
				Str("gallery", gc.String()).
				Err(err).
				Send()
			a.printf("Cannot reach %s gallery %s: %v\n", role, gc, err)
			return &ExitError{Code: ExitUnexpected, Err: err}
		}

		a.log.Info("connectivity_ok").
			Str("role", role).
			Str("gallery", g.String()).
			Str("location", g.Location).
			Send()
		a.printf("%s gallery %s reachable (%s)\n", role, gc, g.Location)
	}
	return nil
}
