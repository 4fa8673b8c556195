package main

import (
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/config"
)

type rootOpts struct {
	configFile string
	viper      *viper.Viper

	Config config.Config
	Logger log.Logger
}

func newRoot() *rootOpts {
	return &rootOpts{viper: viper.New()}
}

var rootLongHelp = strings.TrimSpace(`
snapdiff tells you what would change if a CDN's pending configuration
snapshot were deployed.

Workflow:
  snapdiff count current.json pending.json        # How many changes are pending?
  snapdiff diff current.json pending.json         # What are they?
  snapdiff diff -o yaml --category servers a b    # Just the servers, as YAML.
  snapdiff watch current.json pending.json        # Keep the count, and serve /metrics.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "snapdiff",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file; flags override what it says")
	cmd.PersistentFlags().String("log-format", "", "change the log format, 'fmt' (the default) or 'json'")

	cmd.AddCommand(
		newDiff(opts).Command(),
		newCount(opts).Command(),
		newWatch(opts).Command(),
	)
	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	if opts.configFile != "" {
		opts.viper.SetConfigFile(opts.configFile)
		opts.viper.SetConfigType(config.ConfigType)
		if err := opts.viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", opts.configFile)
		}
	}
	if err := bindConfigFlags(opts.viper, cmd.Flags()); err != nil {
		return err
	}

	var err error
	if opts.Config, err = config.Load(opts.viper); err != nil {
		return newUsageError(err.Error())
	}

	switch opts.Config.LogFormat {
	case "json":
		opts.Logger = log.NewJSONLogger(log.NewSyncWriter(cmd.ErrOrStderr()))
	default:
		opts.Logger = log.NewLogfmtLogger(log.NewSyncWriter(cmd.ErrOrStderr()))
	}
	opts.Logger = log.With(opts.Logger, "ts", log.DefaultTimestampUTC)
	opts.Logger = log.With(opts.Logger, "caller", log.DefaultCaller)
	return nil
}

// strategies returns the categories matching the configured
// patterns, or all of them.
func (opts *rootOpts) strategies() ([]category.Strategy, error) {
	if len(opts.Config.Categories) == 0 {
		return category.Builtin(), nil
	}
	strategies, err := category.Select(opts.Config.Categories...)
	if err != nil {
		return nil, usageError{err}
	}
	return strategies, nil
}
