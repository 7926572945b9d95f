package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-tpm/tpm2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stiankri/tpm-algtest/benchmark"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Algorithm)
	assert.Equal(t, benchmark.DefaultRepetitions, cfg.Repetitions)
	assert.Equal(t, "out", cfg.OutputDir)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, benchmark.DefaultOptions(), opts)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(
		"algorithm: ecc\n"+
			"repetitions: 7\n"+
			"curveid: \"0x0003\"\n"+
			"output-dir: /tmp/results\n"), 0o644))
	t.Setenv("TPM_ALGTEST_REPETITIONS", "9")
	t.Setenv("TPM_ALGTEST_NO_EXPORT", "true")

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "ecc", cfg.Algorithm)
	assert.Equal(t, 9, cfg.Repetitions)
	assert.True(t, cfg.NoExport)

	opts, err := cfg.Options()
	require.NoError(t, err)
	require.NotNil(t, opts.Params.Curve)
	assert.Equal(t, tpm2.TPMECCNistP256, *opts.Params.Curve)
	assert.False(t, opts.Export)
	assert.Equal(t, "/tmp/results", opts.OutputDir)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(viper.New(), t.TempDir())
	assert.NoError(t, err)
}

func TestOptions(t *testing.T) {
	cfg := &Config{
		Repetitions: 10,
		KeyLen:      2048,
		Duration:    90,
		Prefix:      "x_",
		OutputDir:   "res",
		Parent:      "ECC",
		Progress:    true,
	}
	require.NoError(t, cfg.Validate())

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, 2048, opts.Params.KeyLen)
	assert.Nil(t, opts.Params.Curve)
	assert.Equal(t, 90*time.Second, opts.Budget)
	assert.Equal(t, tpm2.TPMAlgECC, opts.Parent)
	assert.True(t, opts.Export)
	assert.True(t, opts.Progress)
}

func TestValidate(t *testing.T) {
	for name, cfg := range map[string]Config{
		"repetitions": {Repetitions: 0, Parent: "rsa"},
		"keylen":      {Repetitions: 1, KeyLen: -1, Parent: "rsa"},
		"duration":    {Repetitions: 1, Duration: -5, Parent: "rsa"},
		"curveid":     {Repetitions: 1, CurveID: "p256", Parent: "rsa"},
		"parent":      {Repetitions: 1, Parent: "dsa"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestYAML(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Contains(t, cfg.YAML(), "algorithm: all")
	assert.Contains(t, cfg.YAML(), "prefix: TPM2_CreateLoaded_")
}
