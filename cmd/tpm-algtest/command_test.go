package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-tpm/tpm2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/stiankri/tpm-algtest/benchmark"
)

// acceptingTPM accepts every descriptor and creates every object.
type acceptingTPM struct {
	created int
	closed  bool
}

func (f *acceptingTPM) CreateParent(tpm2.TPMAlgID) (*tpm2.AuthHandle, error) {
	return &tpm2.AuthHandle{Handle: 0x80000000}, nil
}

func (f *acceptingTPM) Validate(*tpm2.TPMTPublic) error { return nil }

func (f *acceptingTPM) CreateLoaded(tpm2.AuthHandle, tpm2.TPM2BSensitiveCreate, *tpm2.TPMTPublic) (*benchmark.Object, error) {
	f.created++
	return &benchmark.Object{Handle: 0x80000001}, nil
}

func (f *acceptingTPM) Flush(tpm2.TPMHandle) error { return nil }

func (f *acceptingTPM) Close() error {
	f.closed = true
	return nil
}

func newTestApp(t *testing.T) (*app, *acceptingTPM, *vfst.TestFS) {
	t.Helper()
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	tpm := &acceptingTPM{}
	a := &app{
		viper: viper.New(),
		fs:    fs,
		open: func(string) (benchmark.Commander, io.Closer, error) {
			return tpm, tpm, nil
		},
	}
	return a, tpm, fs
}

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestCreateLoadedRSA(t *testing.T) {
	a, tpm, fs := newTestApp(t)

	out, _, err := executeCommand(newRootCmd(a), "createloaded", "-a", "rsa", "-l", "2048", "-n", "2", "-o", "/out")
	require.NoError(t, err)

	assert.Equal(t, 2, tpm.created)
	assert.True(t, tpm.closed)
	assert.Contains(t, out, "Testing CreateLoaded (RSA)...")
	assert.Contains(t, out, "param: 2048 | ")

	summary, err := fs.ReadFile("/out/TPM2_CreateLoaded_RSA_summary.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(summary), "keyBits;duration_mean;error_codes\n2048;"))

	raw, err := fs.ReadFile("/out/TPM2_CreateLoaded_RSA_all.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(raw), "\n"))
}

func TestCreateLoadedNoExport(t *testing.T) {
	a, tpm, fs := newTestApp(t)

	_, _, err := executeCommand(newRootCmd(a), "createloaded", "-a", "ecc", "-C", "0x0003", "-n", "1", "-x", "-o", "/out")
	require.NoError(t, err)
	assert.Equal(t, 1, tpm.created)

	_, err = fs.Stat("/out")
	assert.Error(t, err)
}

func TestCreateLoadedUnknownAlgorithm(t *testing.T) {
	a, _, _ := newTestApp(t)
	opened := false
	a.open = func(string) (benchmark.Commander, io.Closer, error) {
		opened = true
		return nil, nil, errors.New("unexpected")
	}

	_, stderr, err := executeCommand(newRootCmd(a), "createloaded", "-a", "dsa")
	assert.NoError(t, err)
	assert.False(t, opened)
	assert.Contains(t, stderr, "unknown algorithm")
}

func TestCreateLoadedInvalidConfig(t *testing.T) {
	a, tpm, _ := newTestApp(t)

	_, _, err := executeCommand(newRootCmd(a), "createloaded", "-n", "0")
	assert.Error(t, err)
	assert.Zero(t, tpm.created)
}

func TestCreateLoadedOpenFailure(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.open = func(string) (benchmark.Commander, io.Closer, error) {
		return nil, nil, errors.New("no such device")
	}

	_, _, err := executeCommand(newRootCmd(a), "createloaded", "-a", "rsa", "--tpm", "/dev/tpm9")
	assert.ErrorContains(t, err, "no such device")
}

func TestList(t *testing.T) {
	a, tpm, _ := newTestApp(t)

	out, _, err := executeCommand(newRootCmd(a), "list", "-a", "ecc", "--prefix", "run_")
	require.NoError(t, err)
	assert.Zero(t, tpm.created)
	assert.Contains(t, out, "FAMILY")
	assert.Regexp(t, `ECC\s+33\s+run_ECC_summary.csv\s+run_ECC_all.csv`, out)
}
