package main

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/preslavrachev/e2eharness/config"
)

const defaultConfigFile = "e2e.yaml"

// rootCommand holds the state shared by the subcommands.
type rootCommand struct {
	ctx    context.Context
	cmd    *cobra.Command
	stdout io.Writer
	logger *logrus.Logger

	configPath string
	logLevel   string
	noColor    bool

	cfg *config.Config
}

func newRootCommand(ctx context.Context, stdout, stderr io.Writer) *rootCommand {
	logger := config.NewLogger(logrus.InfoLevel.String())
	logger.SetOutput(stderr)

	c := &rootCommand{ctx: ctx, stdout: stdout, logger: logger}
	c.cmd = &cobra.Command{
		Use:               "e2e",
		Short:             "end-to-end tests for the contracts app",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}
	c.cmd.SetOut(stdout)
	c.cmd.SetErr(stderr)
	c.cmd.PersistentFlags().AddFlagSet(c.rootCmdPersistentFlagSet())
	c.cmd.AddCommand(getRunCmd(c), getServeCmd(c))
	return c
}

func (c *rootCommand) rootCmdPersistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.StringVarP(&c.configPath, "config", "c", defaultConfigFile, "YAML config file, ignored when missing")
	flags.StringVar(&c.logLevel, "log-level", "", "log level, overrides the configured one")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	must(cobra.MarkFlagFilename(flags, "config", "yaml", "yml"))
	return flags
}

func (c *rootCommand) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	if c.noColor {
		color.NoColor = true
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// setLogLevel applies the --log-level flag, or level when the flag is unset.
func (c *rootCommand) setLogLevel(level string) {
	if c.logLevel != "" {
		level = c.logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		c.logger.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	c.logger.SetLevel(lvl)
}

func (c *rootCommand) execute() error {
	err := c.cmd.ExecuteContext(c.ctx)
	if err != nil {
		c.logger.Error(err)
	}
	return err
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
