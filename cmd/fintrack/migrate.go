package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Create or update the schema of the configured sqlite or postgres
database. The memory backend has nothing to migrate.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger, err := cli.SetupLogger(cfg, applog.ComponentCLI)
			if err != nil {
				return err
			}
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}

			version, err := backend.NewFactory(logger.Logger).Migrate(cmd.Context(), bcfg)
			if errors.Is(err, backend.ErrNoSchema) {
				fmt.Println(subtleStyle.Render("Nothing to migrate for the " + bcfg.Type.String() + " backend."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s schema at version %d", bcfg.Type, version)))
			return nil
		},
	}
}
