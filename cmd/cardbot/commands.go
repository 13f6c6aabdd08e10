package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/cardbot/core/buildinfo"
	corecmd "github.com/m3rciful/cardbot/core/cmd"
	"github.com/m3rciful/cardbot/core/database"
	"github.com/m3rciful/cardbot/core/logger"
	"github.com/m3rciful/cardbot/internal/app"
	"github.com/m3rciful/cardbot/internal/config"
)

const defaultConfigPath = "config.yaml"

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cardbot",
		Short:         "Telegram bot that looks up bank card owners for channel subscribers",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot and its HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd, configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			},
		},
	)
	return root
}

func serve(cmd *cobra.Command, configPath string) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		Context:           cmd.Context(),
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
}

func migrate(configPath string) error {
	path := corecmd.ResolveConfigPath(configPath, "", defaultConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()
	return database.RunMigrations(cfg.Database)
}
