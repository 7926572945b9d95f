package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/twpayne/go-vfs"
)

const (
	separator = ';'
	noData    = "n/a"
)

// Report holds the summary and raw CSV sinks of one family.
type Report struct {
	summary *csv.Writer
	raw     *csv.Writer
	files   []io.Closer
}

// OpenReport truncates and opens both sinks of the family under dir and
// writes their headers. With export false the rows are discarded.
func OpenReport(fs vfs.FS, dir, prefix string, f Family, export bool) (*Report, error) {
	r := &Report{}
	if !export {
		r.summary = newCSVWriter(io.Discard)
		r.raw = newCSVWriter(io.Discard)
		return r, nil
	}

	if err := vfs.MkdirAll(fs, dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating output directory: %w", err)
	}

	summary, err := createFile(fs, filepath.Join(dir, f.SummaryFile(prefix)))
	if err != nil {
		return nil, err
	}
	raw, err := createFile(fs, filepath.Join(dir, f.RawFile(prefix)))
	if err != nil {
		summary.Close()
		return nil, err
	}

	r.summary = newCSVWriter(summary)
	r.raw = newCSVWriter(raw)
	r.files = []io.Closer{summary, raw}

	header := f.Header()
	if err := r.write(r.summary, append(header, "duration_mean", "error_codes")); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.write(r.raw, append(f.Header(), "duration", "return_code")); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func createFile(fs vfs.FS, path string) (*os.File, error) {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s: %w", path, err)
	}
	return file, nil
}

func newCSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = separator
	return cw
}

// Rows are flushed one by one so an interrupted sweep leaves usable files.
func (r *Report) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteRecord appends one repetition to the raw sink.
func (r *Report) WriteRecord(t Tuple, rec Record) error {
	return r.write(r.raw, append(t.Fields(), formatSeconds(rec.Duration), rec.Status.String()))
}

// WriteSummary appends the summary row of a tuple.
func (r *Report) WriteSummary(t Tuple, s *Summary) error {
	mean := noData
	if m, ok := s.Mean(); ok {
		mean = formatSeconds(m)
	}
	codes := make([]string, 0, len(s.errors))
	for _, rc := range s.Errors() {
		codes = append(codes, rc.String())
	}
	return r.write(r.summary, append(t.Fields(), mean, strings.Join(codes, ",")))
}

func (r *Report) Close() error {
	var errs error
	for _, w := range []*csv.Writer{r.summary, r.raw} {
		w.Flush()
		if err := w.Error(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, f := range r.files {
		if err := f.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	r.files = nil
	return errs
}

// formatSeconds renders d in seconds with microsecond precision and no
// trailing zeros.
func formatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
