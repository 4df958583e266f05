package vcf

import (
	"errors"
	"fmt"
)

// Failure modes of parsing and normalization. Every one of them is
// unrecoverable for the file being loaded: there is no per-record skip.
var (
	// ErrMalformedHeader is returned when a comment line reaches the
	// record parser. Header lines must be filtered by the caller.
	ErrMalformedHeader = errors.New("header line where record expected")

	// ErrMalformedRecord is returned for lines that lack the mandatory
	// 8 VCF columns, or that carry a FORMAT column without samples.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidFrequencyData is returned when a FREQ entry is
	// inconsistent with the record's declared allele count.
	ErrInvalidFrequencyData = errors.New("invalid allele frequency data")

	// ErrInvalidInfoField is returned on an attempt to append an empty
	// key or value to an INFO field.
	ErrInvalidInfoField = errors.New("invalid info field")

	// ErrMissingHeader is returned when a VCF stream lacks the "##"
	// metadata block or the #CHROM column line.
	ErrMissingHeader = errors.New("missing VCF header")
)

// ParseError attaches the input line number to a parse or
// normalization failure.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
