package fec

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const separator = "\t"

// Write serializes records as tab-delimited text with one header row.
// Label fields are expected to be already free of tabs and newlines; the
// writer flattens any stragglers rather than quoting, since the statutory
// format has no quoting convention.
func Write(w io.Writer, records []*Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, separator) + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		fields := r.fields()
		for i, f := range fields {
			fields[i] = sanitize(f)
		}
		if _, err := bw.WriteString(strings.Join(fields, separator) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses a tab-delimited FEC file produced by Write. The header row
// is checked for the statutory column count.
func Read(r io.Reader) ([]*Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty FEC file")
	}
	header := strings.Split(sc.Text(), separator)
	if len(header) != len(Header) {
		return nil, fmt.Errorf("invalid FEC header: %d columns, expected %d", len(header), len(Header))
	}

	var records []*Record
	line := 1
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		fields := strings.Split(text, separator)
		if len(fields) != len(Header) {
			return nil, fmt.Errorf("line %d: %d columns, expected %d", line, len(fields), len(Header))
		}
		records = append(records, &Record{
			JournalCode: fields[0], JournalLib: fields[1],
			EcritureNum: fields[2], EcritureDate: fields[3],
			CompteNum: fields[4], CompteLib: fields[5],
			CompAuxNum: fields[6], CompAuxLib: fields[7],
			PieceRef: fields[8], PieceDate: fields[9],
			EcritureLib: fields[10], Debit: fields[11], Credit: fields[12],
			EcritureLet: fields[13], DateLet: fields[14], ValidDate: fields[15],
			Montantdevise: fields[16], Idevise: fields[17],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
