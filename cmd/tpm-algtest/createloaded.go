package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stiankri/tpm-algtest/benchmark"
)

const createLoadedExample = `  Sweep every family with 100 repetitions per tuple
    $ tpm-algtest createloaded

  RSA 2048 only, 10 repetitions, against /dev/tpmrm0
    $ tpm-algtest createloaded -a rsa -l 2048 -n 10 --tpm /dev/tpmrm0

  ECC NIST P-256 only on a simulator, stop starting new tuples after 10 minutes
    $ tpm-algtest createloaded -a ecc -C 0x0003 -d 600 --tpm 127.0.0.1:2321`

func newCreateLoadedCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:     "createloaded",
		Args:    cobra.ExactArgs(0),
		Short:   "Measure TPM2_CreateLoaded over the parameter space",
		Example: createLoadedExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(a, cmd, "algorithm", "repetitions", "keylen", "curveid", "duration", "no-export", "output-dir", "prefix", "parent", "progress")
			cfg, logger, err := loadConfig(a, cmd)
			if err != nil {
				return err
			}

			if _, err := benchmark.ParseFamilies(cfg.Algorithm); err != nil {
				logger.Error("unknown algorithm, nothing to do", "algorithm", cfg.Algorithm)
				return nil
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			tpm, closer, err := a.open(cfg.TPM)
			if err != nil {
				return fmt.Errorf("failed opening TPM: %w", err)
			}
			defer closer.Close()

			sweeper := benchmark.NewSweeper(tpm, a.fs, cmd.OutOrStdout(), logger, opts)
			return sweeper.Run(cfg.Algorithm)
		},
	}

	flags := c.Flags()
	flags.StringP("algorithm", "a", "all", "Algorithm family: all, rsa, ecc, symcipher or keyedhash")
	flags.IntP("repetitions", "n", benchmark.DefaultRepetitions, "Repetitions per tuple")
	flags.IntP("keylen", "l", 0, "Only test this RSA/symmetric key length, 0 sweeps all")
	flags.StringP("curveid", "C", "", "Only test this ECC curve ID (e.g. 0x0003)")
	flags.IntP("duration", "d", 0, "Stop starting new tuples after this many seconds, 0 for no limit")
	flags.BoolP("no-export", "x", false, "Do not write CSV files")
	flags.StringP("output-dir", "o", "out", "Directory for the CSV files")
	flags.String("prefix", benchmark.DefaultPrefix, "File name prefix of the CSV files")
	flags.String("parent", "rsa", "Parent key type: rsa or ecc")
	flags.Bool("progress", false, "Show a progress bar instead of one line per repetition")
	return c
}
