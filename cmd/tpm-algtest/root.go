package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stiankri/tpm-algtest/config"
)

const long = `tpm-algtest measures how long a TPM takes to create objects with
TPM2_CreateLoaded across the parameter space of every algorithm family
(RSA key sizes, ECC curves, symmetric ciphers and keyed-hash schemes) and
records latency and response codes in CSV files.

Options are read from flags, TPM_ALGTEST_* environment variables and
tpm-algtest.yaml in --config-dir, in that order of precedence.`

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tpm-algtest",
		Short:        "Sweep TPM algorithm parameters and measure CreateLoaded",
		Long:         long,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logs")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding tpm-algtest.yaml")
	cmd.PersistentFlags().String("tpm", "", "TPM device path (/dev/tpmrm0) or simulator host:port, platform default if empty")
	_ = a.viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = a.viper.BindPFlag("tpm", cmd.PersistentFlags().Lookup("tpm"))

	cmd.AddCommand(newCreateLoadedCmd(a))
	cmd.AddCommand(newListCmd(a))
	return cmd
}

// bindFlags binds the named local flags of cmd. Subcommands share flag names,
// so binding happens when the command runs rather than when it is built.
func bindFlags(a *app, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = a.viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig(a *app, cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.Load(a.viper, configDir)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	slog.SetDefault(logger)
	logger.Debug("effective configuration\n" + cfg.YAML())
	return cfg, logger, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if debug {
		opts.Level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
