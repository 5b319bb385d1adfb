package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/preslavrachev/e2eharness/config"
	"github.com/preslavrachev/e2eharness/internal/server"
)

func getServeCmd(c *rootCommand) *cobra.Command {
	var seed bool
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contracts app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if err := applyAppFlags(cmd.Flags(), cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.setLogLevel(cfg.App.LogLevel)

			ctx := cmd.Context()
			srv, err := server.New(ctx, cfg, c.logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			if seed {
				if err := srv.Seed(ctx); err != nil {
					return err
				}
			}
			return srv.ListenAndServe(ctx)
		},
	}
	serveCmd.Flags().AddFlagSet(serveCmdFlagSet())
	serveCmd.Flags().BoolVar(&seed, "seed", false, "add demo contracts to an empty database")
	return serveCmd
}

func serveCmdFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.String("addr", "", "listen address")
	flags.String("database", "", "sqlite data source name")
	flags.String("auth", "", "authentication mode: basic or none")
	flags.StringSlice("features", nil, "active feature flags")
	flags.Bool("debug-sql", false, "log every SQL statement")
	return flags
}

// applyAppFlags overrides cfg with every flag given on the command line.
func applyAppFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed("addr") {
		if cfg.App.Addr, err = flags.GetString("addr"); err != nil {
			return err
		}
	}
	if flags.Changed("database") {
		if cfg.App.Database, err = flags.GetString("database"); err != nil {
			return err
		}
	}
	if flags.Changed("auth") {
		if cfg.Auth.Mode, err = flags.GetString("auth"); err != nil {
			return err
		}
	}
	if flags.Changed("features") {
		if cfg.App.Features, err = flags.GetStringSlice("features"); err != nil {
			return err
		}
	}
	if flags.Changed("debug-sql") {
		if cfg.App.DebugSQL, err = flags.GetBool("debug-sql"); err != nil {
			return err
		}
	}
	return nil
}
