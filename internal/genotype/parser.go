package genotype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownFormat is returned when a file matches no supported layout.
var ErrUnknownFormat = errors.New("unknown genotype file format")

// Parser reads genotype calls from a raw export.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	format     Format
	sampleID   string
	lineNumber int
	pending    string // first data line, consumed while detecting the layout
	hasPending bool
}

// Open opens a raw genotype file, choosing the layout from the file name and
// falling back to the shape of the first data line.
func Open(path string) (*Parser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genotype file: %w", err)
	}

	p, err := newParser(file, formatFromName(path), SampleID(path))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	p.file = file
	return p, nil
}

// NewParser creates a parser over r. An empty format is detected from the data.
func NewParser(r io.Reader, format Format, sampleID string) (*Parser, error) {
	return newParser(r, format, sampleID)
}

func newParser(r io.Reader, format Format, sampleID string) (*Parser, error) {
	p := &Parser{
		reader:   bufio.NewReader(r),
		format:   format,
		sampleID: sampleID,
	}

	b, err := p.reader.Peek(1)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read genotype header: %w", err)
	}
	if len(b) == 1 && b[0] == 0 {
		return nil, fmt.Errorf("file starts with NUL byte: %w", ErrUnknownFormat)
	}

	if err := p.skipHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// Format returns the layout being parsed.
func (p *Parser) Format() Format {
	return p.format
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// skipHeader consumes the comment block and, for AncestryDNA, the column
// header row. The first data line is kept in pending.
func (p *Parser) skipHeader() error {
	for {
		line, ok, err := p.readLine()
		if err != nil {
			return err
		}
		if !ok {
			if p.format == "" {
				return ErrUnknownFormat
			}
			return nil
		}
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		if p.format == "" {
			p.format = sniff(line)
			if p.format == "" {
				return &ParseError{Line: p.lineNumber, Message: "unrecognized column layout", Err: ErrUnknownFormat}
			}
		}
		if p.format == FormatAncestry && isAncestryHeader(line) {
			return nil
		}
		p.pending, p.hasPending = line, true
		return nil
	}
}

// Next reads the next call. Returns nil, nil when there are no more calls.
// Rows whose position is not numeric are skipped.
func (p *Parser) Next() (*Call, error) {
	for {
		var line string
		if p.hasPending {
			line, p.hasPending = p.pending, false
		} else {
			l, ok, err := p.readLine()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			line = l
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		call, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if call != nil {
			return call, nil
		}
	}
}

func (p *Parser) parseLine(line string) (*Call, error) {
	fields := strings.Split(line, "\t")

	want := 4
	if p.format == FormatAncestry {
		want = 5
	}
	if len(fields) < want {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d columns, found %d", want, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return nil, nil
	}

	alleles := strings.TrimSpace(fields[3])
	if p.format == FormatAncestry {
		alleles = ancestryAllele(fields[3]) + ancestryAllele(fields[4])
	}

	return &Call{
		Identifier: strings.TrimSpace(fields[0]),
		Chromosome: strings.TrimSpace(fields[1]),
		Position:   pos,
		Alleles:    alleles,
		SampleID:   p.sampleID,
		Source:     p.format,
	}, nil
}

// readLine returns the next line without its terminator; ok is false at EOF.
func (p *Parser) readLine() (string, bool, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, fmt.Errorf("read genotype line: %w", err)
	}
	if err == io.EOF && line == "" {
		return "", false, nil
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ReadFile parses every call in the file at path.
func ReadFile(path string) ([]Call, Format, error) {
	p, err := Open(path)
	if err != nil {
		return nil, "", err
	}
	defer p.Close()

	var calls []Call
	for {
		c, err := p.Next()
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if c == nil {
			break
		}
		calls = append(calls, *c)
	}
	return calls, p.Format(), nil
}

func formatFromName(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "23andme"):
		return Format23andMe
	case strings.Contains(name, "ancestry"):
		return FormatAncestry
	}
	return ""
}

func sniff(line string) Format {
	fields := strings.Split(line, "\t")
	switch {
	case isAncestryHeader(line):
		return FormatAncestry
	case len(fields) == 5:
		return FormatAncestry
	case len(fields) == 4:
		return Format23andMe
	}
	return ""
}

func isAncestryHeader(line string) bool {
	fields := strings.Split(line, "\t")
	return len(fields) >= 5 && strings.EqualFold(strings.TrimSpace(fields[0]), "rsid") &&
		strings.EqualFold(strings.TrimSpace(fields[3]), "allele1")
}

func ancestryAllele(s string) string {
	s = strings.TrimSpace(s)
	if s == "None" {
		return ""
	}
	return s
}

// ParseError represents an error during genotype parsing with line context.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genotype parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
