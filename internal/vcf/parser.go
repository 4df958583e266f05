package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Nucleotide alphabets used for the non-fatal sequence sanity checks.
// The alt alphabet additionally allows the allele separator and the
// missing-allele symbol.
const (
	refAlphabet = "ATGCatgc"
	altAlphabet = "ATGCatgc,."
)

// Parser turns raw VCF data lines into Records.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser. Sequence warnings go nowhere until a
// logger is set.
func NewParser() *Parser {
	return &Parser{logger: zap.NewNop()}
}

// SetLogger sets the logger used for nucleotide warnings.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// ParseRecord parses one data line into a Record.
//
// The line must not be a header line. The first 8 tab-delimited fields
// are mandatory; a line with 10 or more fields additionally carries the
// FORMAT string and one or more sample columns. The historic "*"
// wildcard in the alt field is folded into "." before the field is
// split on commas. Unexpected characters in the ref or alt sequences
// are logged but never fatal.
func (p *Parser) ParseRecord(line string) (*Record, error) {
	if strings.HasPrefix(line, "#") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("%w: expected at least 8 columns, found %d", ErrMalformedRecord, len(fields))
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 0 {
		return nil, fmt.Errorf("%w: invalid position %q", ErrMalformedRecord, fields[1])
	}

	alt := strings.ReplaceAll(fields[4], "*", ".")

	if !validSequence(fields[3], refAlphabet) {
		p.logger.Warn("unexpected symbol in reference sequence", zap.String("ref", fields[3]))
	}
	if !validSequence(alt, altAlphabet) {
		p.logger.Warn("unexpected symbol in alternative sequence", zap.String("alt", alt))
	}

	r := &Record{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    strings.Split(alt, ","),
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
	}

	switch {
	case len(fields) >= 10:
		r.Format = fields[8]
		r.Samples = fields[9:]
	case len(fields) == 9:
		return nil, fmt.Errorf("%w: FORMAT column without sample columns", ErrMalformedRecord)
	}

	return r, nil
}

func validSequence(s, alphabet string) bool {
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Header holds the metadata block and the column line of a VCF stream.
type Header struct {
	Meta    []string // "##" metadata lines, in file order
	Columns string   // the "#CHROM" column line
}

// ScanHeader consumes the mandatory header of a VCF stream: the "##"
// metadata block followed by the single #CHROM column line. It returns
// the header and the number of lines read. A stream without both
// blocks fails with ErrMissingHeader.
func ScanHeader(br *bufio.Reader) (*Header, int, error) {
	h := &Header{}
	n := 0
	for {
		line, err := br.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				break
			}
			return nil, n, fmt.Errorf("read header: %w", err)
		}
		n++
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			h.Meta = append(h.Meta, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			h.Columns = line
		}
		break
	}

	if len(h.Meta) == 0 || h.Columns == "" {
		return nil, n, ErrMissingHeader
	}
	return h, n, nil
}
