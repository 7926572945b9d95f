package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stiankri/tpm-algtest/benchmark"
)

func newListCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Args:  cobra.ExactArgs(0),
		Short: "Show the tuples and files a createloaded run would produce",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(a, cmd, "algorithm", "keylen", "curveid", "prefix")
			cfg, logger, err := loadConfig(a, cmd)
			if err != nil {
				return err
			}

			families, err := benchmark.ParseFamilies(cfg.Algorithm)
			if err != nil {
				logger.Error("unknown algorithm, nothing to do", "algorithm", cfg.Algorithm)
				return nil
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FAMILY\tTUPLES\tSUMMARY\tRAW")
			for _, f := range families {
				tuples, err := f.Tuples(opts.Params)
				if err != nil {
					logger.Error("incomplete family", "family", f.String(), "err", err)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f, len(tuples), f.SummaryFile(opts.Prefix), f.RawFile(opts.Prefix))
			}
			return w.Flush()
		},
	}

	flags := c.Flags()
	flags.StringP("algorithm", "a", "all", "Algorithm family: all, rsa, ecc, symcipher or keyedhash")
	flags.IntP("keylen", "l", 0, "Only list this RSA/symmetric key length, 0 lists all")
	flags.StringP("curveid", "C", "", "Only list this ECC curve ID")
	flags.String("prefix", benchmark.DefaultPrefix, "File name prefix of the CSV files")
	return c
}
