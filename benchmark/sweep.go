package benchmark

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/go-units"
	"github.com/google/go-tpm/tpm2"
	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/twpayne/go-vfs"
)

const DefaultPrefix = "TPM2_CreateLoaded_"

// Options configure a Sweeper.
type Options struct {
	Params      Params
	Repetitions int
	// Budget stops the sweep at the next tuple boundary once exceeded.
	// Zero means no limit.
	Budget    time.Duration
	Export    bool
	OutputDir string
	Prefix    string
	// Parent is the key type of the storage primary used as parent.
	Parent tpm2.TPMAlgID
	// Progress replaces the per-repetition lines with a progress bar.
	Progress bool
}

func DefaultOptions() Options {
	return Options{
		Params:      DefaultParams(),
		Repetitions: DefaultRepetitions,
		Export:      true,
		OutputDir:   "out",
		Prefix:      DefaultPrefix,
		Parent:      tpm2.TPMAlgRSA,
	}
}

// Sweeper runs the CreateLoaded sweep family by family. It is not safe for
// concurrent use; the TPM processes one command at a time anyway.
type Sweeper struct {
	tpm      Commander
	fs       vfs.FS
	out      io.Writer
	logger   *slog.Logger
	opts     Options
	now      func() time.Time
	deadline time.Time
}

func NewSweeper(tpm Commander, fs vfs.FS, out io.Writer, logger *slog.Logger, opts Options) *Sweeper {
	return &Sweeper{
		tpm:    tpm,
		fs:     fs,
		out:    out,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Run sweeps the families named by selector ("all", "rsa", "ecc",
// "symcipher" or "keyedhash"). An unknown selector yields ErrUnknownFamily
// before anything is sent to the TPM. Failures of individual families do not
// stop the others; they are returned together.
func (s *Sweeper) Run(selector string) error {
	fams, err := ParseFamilies(selector)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "TPM2_CreateLoaded:")
	if s.opts.Budget > 0 {
		s.deadline = s.now().Add(s.opts.Budget)
	}

	var errs error
	for _, f := range fams {
		if err := s.RunFamily(f); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

var errBudgetExceeded = errors.New("duration budget exceeded")

func (s *Sweeper) checkBudget() error {
	if !s.deadline.IsZero() && !s.now().Before(s.deadline) {
		return errBudgetExceeded
	}
	return nil
}

// RunFamily sweeps one family: it creates the parent, opens the report, runs
// every tuple and releases both at the end.
func (s *Sweeper) RunFamily(f Family) (err error) {
	if err := s.checkBudget(); err != nil {
		s.logger.Info("skipping family", "family", f.String(), "reason", err)
		return nil
	}

	fmt.Fprintf(s.out, "Testing CreateLoaded (%s)...\n", f)
	start := s.now()

	parent, err := s.tpm.CreateParent(s.opts.Parent)
	if err != nil {
		return fmt.Errorf("%s: cannot create parent: %w", f, err)
	}
	s.logger.Debug("created parent", "family", f.String(), "handle", fmt.Sprintf("%08x", uint32(parent.Handle)))
	defer func() {
		if ferr := s.tpm.Flush(parent.Handle); ferr != nil {
			s.logger.Debug("failed to flush parent", "family", f.String(), "err", ferr)
		}
	}()

	report, err := OpenReport(s.fs, s.opts.OutputDir, s.opts.Prefix, f, s.opts.Export)
	if err != nil {
		return fmt.Errorf("%s: %w", f, err)
	}
	defer func() {
		if cerr := report.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("%s: closing report: %w", f, cerr))
		}
	}()

	phases, perr := f.Phases(s.opts.Params)
	if perr != nil {
		s.logger.Error("skipping phases", "family", f.String(), "err", perr)
	}

	out := s.out
	var bar *progressbar.ProgressBar
	if s.opts.Progress {
		out = io.Discard
		bar = progressbar.NewOptions(countTuples(phases),
			progressbar.OptionSetWriter(s.out),
			progressbar.OptionSetDescription(f.String()))
	}

	runner := NewRunner(s.tpm, *parent, s.opts.Repetitions, report, out, s.logger)
	runner.now = s.now

	tmpl := NewTemplate(f)
	var errs error
	for _, phase := range phases {
		stop, err := s.runPhase(tmpl, phase, runner, bar)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		if stop {
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(s.out)
	}

	fmt.Fprintf(s.out, "Finished CreateLoaded (%s) in %s\n", f, units.HumanDuration(s.now().Sub(start)))
	return errs
}

// runPhase keeps the phase's attribute override in place only while its
// tuples run. stop reports that the budget ran out.
func (s *Sweeper) runPhase(tmpl *Template, phase Phase, runner *Runner, bar *progressbar.ProgressBar) (stop bool, err error) {
	restore := tmpl.Override(phase.Attributes)
	defer restore()

	var errs error
	for _, tuple := range phase.Tuples {
		if err := s.checkBudget(); err != nil {
			s.logger.Info("stopping sweep", "family", tuple.Family.String(), "param", tuple.String(), "reason", err)
			return true, errs
		}

		public, err := tmpl.Build(tuple)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		outcome, err := runner.Run(tuple, public)
		if err != nil {
			s.logger.Error("tuple aborted", "param", tuple.String(), "err", err)
			errs = multierror.Append(errs, err)
		}
		s.logger.Debug("tuple done", "param", tuple.String(), "outcome", outcome.String())
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return false, errs
}

func countTuples(phases []Phase) int {
	n := 0
	for _, p := range phases {
		n += len(p.Tuples)
	}
	return n
}
