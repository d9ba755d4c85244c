package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/genomenote/rsclass/internal/classify"
)

// TabWriter writes classified calls in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: Columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single classified call. Tabs and newlines inside values are
// replaced with spaces.
func (tw *TabWriter) Write(cc classify.ClassifiedCall) error {
	vals := values(cc)
	for i, v := range vals {
		vals[i] = strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, v)
	}
	_, err := tw.w.WriteString(strings.Join(vals, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
