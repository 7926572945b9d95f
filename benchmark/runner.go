package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/go-tpm/tpm2"
)

const DefaultRepetitions = 100

// Outcome tells what happened to a tuple.
type Outcome int

const (
	// OutcomeNotRun means validation rejected the tuple.
	OutcomeNotRun Outcome = iota
	// OutcomeCompleted means every repetition ran and a summary was written.
	OutcomeCompleted
	// OutcomeAborted means the remaining repetitions were dropped.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotRun:
		return "not run"
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	default:
		return fmt.Sprintf("<invalid outcome %d>", int(o))
	}
}

// Runner measures TPM2_CreateLoaded for one tuple at a time under a shared
// parent.
type Runner struct {
	tpm         Commander
	parent      tpm2.AuthHandle
	repetitions int
	report      *Report
	out         io.Writer
	logger      *slog.Logger
	now         func() time.Time
}

func NewRunner(tpm Commander, parent tpm2.AuthHandle, repetitions int, report *Report, out io.Writer, logger *slog.Logger) *Runner {
	if repetitions < 1 {
		repetitions = DefaultRepetitions
	}
	return &Runner{
		tpm:         tpm,
		parent:      parent,
		repetitions: repetitions,
		report:      report,
		out:         out,
		logger:      logger,
		now:         time.Now,
	}
}

// Run validates the descriptor and, if the TPM accepts it, creates the object
// repetitions times. Errors are returned for failures that are not TPM
// response codes and for report writes; the tuple is aborted in that case.
func (r *Runner) Run(tuple Tuple, public *tpm2.TPMTPublic) (Outcome, error) {
	if err := r.tpm.Validate(public); err != nil {
		r.logger.Debug("parameters rejected", "param", tuple.String(), "err", err)
		return OutcomeNotRun, nil
	}

	var summary Summary
	kept := 0
	for i := 0; i < r.repetitions; i++ {
		start := r.now()
		obj, err := r.tpm.CreateLoaded(r.parent, emptySensitive(), public)
		elapsed := r.now().Sub(start)

		status, ok := StatusOf(err)
		if !ok {
			return OutcomeAborted, fmt.Errorf("%s: failed to create object: %w", tuple, err)
		}
		if status == StatusValueOutOfRange {
			fmt.Fprintf(r.out, "%s: value out of range\n", tuple)
			r.logger.Warn("value out of range, dropping remaining repetitions",
				"param", tuple.String(), "repetition", i+1, "kept_rows", kept)
			return OutcomeAborted, nil
		}

		if status == StatusSuccess {
			if err := r.tpm.Flush(obj.Handle); err != nil {
				r.logger.Debug("failed to flush object", "param", tuple.String(), "err", err)
			}
		}

		rec := Record{Duration: elapsed, Status: status}
		fmt.Fprintf(r.out, "param: %s | %fs | rc: %s\n", tuple, elapsed.Seconds(), status)
		summary.Add(rec)
		if err := r.report.WriteRecord(tuple, rec); err != nil {
			return OutcomeAborted, fmt.Errorf("%s: failed writing record: %w", tuple, err)
		}
		kept++
	}

	if err := r.report.WriteSummary(tuple, &summary); err != nil {
		return OutcomeAborted, fmt.Errorf("%s: failed writing summary: %w", tuple, err)
	}
	return OutcomeCompleted, nil
}
