package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/preslavrachev/e2eharness/config"
	e2e "github.com/preslavrachev/e2eharness/e2e_testing"
	"github.com/preslavrachev/e2eharness/internal/server"
)

func getRunCmd(c *rootCommand) *cobra.Command {
	var (
		serveLocal bool
		only       []string
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the e2e suites",
		Long: `Run the e2e suites against the app at --base-url.

With --serve the app is started in-process on a free port with an
in-memory database, so no separate server is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if err := applySuiteFlags(cmd.Flags(), &cfg.Suite); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.setLogLevel(cfg.Suite.LogLevel)

			suites, err := selectSuites(e2e.Suites(), only)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if serveLocal {
				stop, err := serveInProcess(ctx, c, cfg)
				if err != nil {
					return err
				}
				defer stop()
			}

			_, err = e2e.Run(ctx, cfg, c.logger, c.stdout, suites...)
			return err
		},
	}
	runCmd.Flags().AddFlagSet(runCmdFlagSet())
	runCmd.Flags().BoolVar(&serveLocal, "serve", false, "start the app in-process and test it")
	runCmd.Flags().StringSliceVar(&only, "suite", nil, "run only the named suites")
	return runCmd
}

func runCmdFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.String("base-url", "", "URL of the app under test")
	flags.String("driver", "", "browser driver: static, playwright or chromedp")
	flags.Bool("headless", true, "run the browser headless")
	flags.Duration("slow-mo", 0, "slow every browser operation down by this much (playwright)")
	flags.Duration("action-timeout", 0, "timeout of a single browser action")
	flags.Duration("wait-interval", 0, "polling interval of waiting operations")
	flags.Duration("wait-timeout", 0, "timeout of waiting operations")
	flags.Duration("locate-timeout", 0, "timeout for a page to show up")
	return flags
}

// applySuiteFlags overrides cfg with every flag given on the command line.
func applySuiteFlags(flags *pflag.FlagSet, cfg *config.SuiteConfig) error {
	var errs []error
	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if flags.Changed(name) {
			v, err := flags.GetDuration(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	setString("base-url", &cfg.BaseURL)
	setString("driver", &cfg.Driver)
	setBool("headless", &cfg.Headless)
	setDuration("slow-mo", &cfg.SlowMo)
	setDuration("action-timeout", &cfg.ActionTimeout)
	setDuration("wait-interval", &cfg.WaitInterval)
	setDuration("wait-timeout", &cfg.WaitTimeout)
	setDuration("locate-timeout", &cfg.LocateTimeout)
	return errors.Join(errs...)
}

// selectSuites keeps the suites named in only, in their original order.
func selectSuites(all []e2e.Suite, only []string) ([]e2e.Suite, error) {
	if len(only) == 0 {
		return all, nil
	}
	var selected []e2e.Suite
	for _, s := range all {
		if slices.Contains(only, s.Name) {
			selected = append(selected, s)
		}
	}
	for _, name := range only {
		if !slices.ContainsFunc(all, func(s e2e.Suite) bool { return s.Name == name }) {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
	}
	return selected, nil
}

// serveInProcess starts the app on a free local port with an in-memory
// database and points the suite at it. stop shuts the app down.
func serveInProcess(ctx context.Context, c *rootCommand, cfg *config.Config) (stop func(), err error) {
	appCfg := *cfg
	appCfg.App.Database = ":memory:"
	srv, err := server.New(ctx, &appCfg, c.logger.WithField("component", "app"))
	if err != nil {
		return nil, err
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		srv.Close()
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(serveCtx, l) }()
	cfg.Suite.BaseURL = "http://" + l.Addr().String()

	return func() {
		cancel()
		if err := <-done; err != nil {
			c.logger.WithError(err).Warn("in-process app stopped with error")
		}
		srv.Close()
	}, nil
}
