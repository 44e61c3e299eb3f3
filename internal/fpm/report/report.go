// Package report renders mining outcomes as plain text and stores them.
//
// Layout
// ======
//
// A report is a header of "Key: value" lines followed by the itemset listing:
//
//	Minimum Support: 0.5
//	Minimum Support Count: 2
//	Transactions in database: 4
//	Frequent items count: 3
//	Frequent itemsets count: 6
//	Computation Time: 1 ms
//
//
//
//	Frequent Itemsets:
//	[1] appears 3 times.
//	[1, 2] appears 2 times.
//
// Approximate runs add the d-bound computation time, the sample size, the
// lowered threshold, epsilon, delta and the d-bound after "Computation Time".
// Itemsets are listed by support descending, then size ascending. Computation
// Time covers the whole run, reading the input included.
//
// Files are rendered in memory and moved into place with a rename, so a failed
// run never leaves a partial report behind.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"

	"fpm.lopezb.com/internal/fpm/assoc"
	"fpm.lopezb.com/internal/fpm/mining"
)

// ErrorsFile is the name of the association-rule error report.
const ErrorsFile = "ar_errors.txt"

// Write renders o.
func Write(w io.Writer, o *mining.Outcome) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Minimum Support: %v\n", o.MinSupport)
	fmt.Fprintf(bw, "Minimum Support Count: %d\n", o.MinCount)
	fmt.Fprintf(bw, "Transactions in database: %d\n", o.Transactions)
	fmt.Fprintf(bw, "Frequent items count: %d\n", o.FrequentItems)
	fmt.Fprintf(bw, "Frequent itemsets count: %d\n", o.Itemsets.Len())
	fmt.Fprintf(bw, "Computation Time: %d ms\n", o.Timings.Total.Milliseconds())

	if s := o.Sample; s != nil {
		fmt.Fprintf(bw, "DBound Computation Time: %d ms\n", o.Timings.DBound.Milliseconds())
		fmt.Fprintf(bw, "Sample Size (VC): %d\n", s.SampleSize)
		fmt.Fprintf(bw, "Minimum Frequency Threshold: %d\n", s.MinCount)
		fmt.Fprintf(bw, "epsilon: %v\n", s.Epsilon)
		fmt.Fprintf(bw, "delta: %v\n", s.Delta)
		fmt.Fprintf(bw, "d-bound (q): %d\n", s.DBound)
		bw.WriteString("\n\n")
	} else {
		bw.WriteString("\n\n\n")
	}

	bw.WriteString("Frequent Itemsets:\n")
	for _, s := range o.Itemsets.Sorted() {
		fmt.Fprintf(bw, "%s appears %d times.\n", s, s.Support)
	}
	return bw.Flush()
}

// FileName returns the report name for a run finished at t.
func FileName(t time.Time) string {
	return "frequent_itemsets_" + t.Format("20060102_150405") + ".txt"
}

// Save writes the report of o into dir, creating it if needed, and returns the
// file path.
func Save(dir string, o *mining.Outcome, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, o); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(now))
	return path, writeAtomic(path, buf.Bytes())
}

// SaveErrors writes the association-rule errors into dir/ar_errors.txt.
func SaveErrors(dir string, e assoc.Errors) (string, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ErrorsFile)
	return path, writeAtomic(path, buf.Bytes())
}

// writeAtomic stores data under path through a temporary sibling that is
// synced and renamed over the target.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.Wrap(err, "create output directory")
	}

	tmpName := path + ".tmp"
	f, err := os.Create(tmpName)
	if err != nil {
		return pkgerrors.Wrap(err, "create report")
	}

	var closed, renamed bool
	defer func() {
		if !closed {
			_ = f.Close()
		}
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return pkgerrors.Wrapf(err, "write %s", tmpName)
	}
	if err := f.Sync(); err != nil {
		return pkgerrors.Wrapf(err, "sync %s", tmpName)
	}
	if err := f.Close(); err != nil {
		return pkgerrors.Wrapf(err, "close %s", tmpName)
	}
	closed = true

	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.Wrapf(err, "rename %s", tmpName)
	}
	renamed = true
	return nil
}
