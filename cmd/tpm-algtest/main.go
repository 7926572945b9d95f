package main

import (
	"io"
	"os"

	"github.com/spf13/viper"
	"github.com/twpayne/go-vfs"

	"github.com/stiankri/tpm-algtest/benchmark"
)

// app carries what the commands touch outside the process.
type app struct {
	viper *viper.Viper
	fs    vfs.FS
	open  func(path string) (benchmark.Commander, io.Closer, error)
}

func openTPM(path string) (benchmark.Commander, io.Closer, error) {
	tpm, err := benchmark.OpenTPM(path)
	if err != nil {
		return nil, nil, err
	}
	return benchmark.NewTPM(tpm), tpm, nil
}

func main() {
	a := &app{
		viper: viper.New(),
		fs:    vfs.OSFS,
		open:  openTPM,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
