package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/google/go-tpm/tpm2/transport"
	"github.com/stiankri/tpm-algtest/benchmark"
	"github.com/twpayne/go-vfs"
)

func main() {
	tpm, err := transport.OpenTPM()
	if err != nil {
		log.Fatal(err)
	}
	defer tpm.Close()

	opts := benchmark.DefaultOptions()
	opts.Params.KeyLen = 2048
	opts.Repetitions = 30

	sweeper := benchmark.NewSweeper(benchmark.NewTPM(tpm), vfs.OSFS, os.Stdout, slog.Default(), opts)
	for _, family := range []string{"rsa", "ecc"} {
		if err := sweeper.Run(family); err != nil {
			slog.Error(err.Error())
		}
	}
}
