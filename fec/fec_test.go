package fec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0,00"},
		{1, "0,01"},
		{-1, "-0,01"},
		{99, "0,99"},
		{-99, "-0,99"},
		{100, "1,00"},
		{-100, "-1,00"},
		{123456, "1234,56"},
		{120000, "1200,00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCents(tt.cents))
	}
}

func TestParseCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, -1, 99, -99, 100, -100, 123456, -123456} {
		got, err := ParseCents(FormatCents(cents))
		assert.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}

func TestParseCentsRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "12", "12.34", "12,3", "12,345", "a,bc", "1 2,00"} {
		_, err := ParseCents(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	records := []*Record{
		{
			JournalCode: "BQ", JournalLib: "Banque",
			EcritureNum: "1", EcritureDate: "20240115",
			CompteNum: "512", CompteLib: "Banque",
			PieceRef: "00001", PieceDate: "20240115",
			EcritureLib: "FACT-001 - Prestation", Debit: "1200,00", Credit: "0,00",
			ValidDate: "20240131",
		},
		{
			JournalCode: "BQ", JournalLib: "Banque",
			EcritureNum: "1", EcritureDate: "20240115",
			CompteNum: "411", CompteLib: "Clients",
			CompAuxNum: "411001", CompAuxLib: "ACME",
			PieceRef: "00001", PieceDate: "20240115",
			EcritureLib: "FACT-001 - Prestation", Debit: "0,00", Credit: "1200,00",
			EcritureLet: "A", DateLet: "20240131", ValidDate: "20240131",
		},
	}

	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, records))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, strings.Join(Header, "\t"), lines[0])

	parsed, err := Read(&buf)
	assert.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestWriteFlattensControlCharacters(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []*Record{{EcritureLib: "line\twith\nbreaks", Debit: "0,00", Credit: "1,00"}})
	assert.NoError(t, err)
	assert.False(t, strings.Contains(buf.String(), "line\twith"))

	parsed, err := Read(&buf)
	assert.NoError(t, err)
	assert.Equal(t, "line with breaks", parsed[0].EcritureLib)
}

func TestReadRejectsBadColumnCount(t *testing.T) {
	_, err := Read(strings.NewReader("a\tb\tc\n"))
	assert.Error(t, err)

	input := strings.Join(Header, "\t") + "\nonly\tthree\tcolumns\n"
	_, err = Read(strings.NewReader(input))
	assert.Error(t, err)
}

func TestRecordAccessors(t *testing.T) {
	r := &Record{EcritureDate: "20240115", ValidDate: "20240131", Debit: "10,50", Credit: "0,00"}

	d, err := r.EntryDate()
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-15", d.Format("2006-01-02"))

	v, err := r.ValidationDate()
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-31", v.Format("2006-01-02"))

	debit, err := r.DebitCents()
	assert.NoError(t, err)
	assert.Equal(t, int64(1050), debit)

	credit, err := r.CreditCents()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), credit)
}
