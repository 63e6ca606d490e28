// Package record decodes framed SMDR records into rows of fields and
// encodes rows back into CSV lines.
//
// Decoding is schema-agnostic: a row carries whatever number of fields
// the sender put on the line.  Only CSV well-formedness is checked.
package record

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	smerr "smdrcollect/internal/errors"
)

// Row is one decoded record, fields in the order the sender wrote them.
type Row []string

// Decode parses raw as exactly one CSV line.  Fields may be enclosed in
// double quotes; a quote inside a quoted field is written as two quotes.
// An unterminated quote or a quote inside an unquoted field yields an
// error wrapping [smerr.ErrMalformedRecord].
func Decode(raw string) (Row, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return nil, fmt.Errorf("%w: embedded line break", smerr.ErrMalformedRecord)
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	fields, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty record", smerr.ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", smerr.ErrMalformedRecord, unwrapParse(err))
	}
	return Row(fields), nil
}

// Encode renders row as a single CSV line, quoting fields that contain
// a comma, a quote, a line break or leading space.  The line terminator
// is "\r\n" when crlf is set and "\n" otherwise.
//
// A row holding one empty field is written as a quoted empty string;
// left bare it would be a blank line, which readers skip.
func Encode(row Row, crlf bool) (string, error) {
	if len(row) == 1 && row[0] == "" {
		if crlf {
			return "\"\"\r\n", nil
		}
		return "\"\"\n", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = crlf
	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// unwrapParse strips the line number from a csv.ParseError; a record is
// always a single line so it carries no information.
func unwrapParse(err error) error {
	var pe *csv.ParseError
	if smerr.As(err, &pe) {
		return fmt.Errorf("column %d: %w", pe.Column, pe.Err)
	}
	return err
}
