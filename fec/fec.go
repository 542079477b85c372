// Package fec models the French FEC (Fichier des Écritures Comptables)
// export format: one tab-delimited line per debit or credit posting, a
// fixed 18-column layout, dates as YYYYMMDD and amounts as comma-decimal
// values with exactly two digits after the separator.
//
// Amounts are carried as integer minor currency units (cents) everywhere
// inside the program; FormatCents and ParseCents convert at the file
// boundary so that no floating point arithmetic ever touches a ledger
// amount.
package fec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the statutory date layout used in every FEC date column.
const DateFormat = "20060102"

// Journal identifies a source book a posting belongs to.
type Journal struct {
	Code  string
	Label string
}

// Record is a single FEC line. All fields are held in their serialized
// form; optional columns are empty strings, never placeholders.
type Record struct {
	JournalCode   string
	JournalLib    string
	EcritureNum   string
	EcritureDate  string
	CompteNum     string
	CompteLib     string
	CompAuxNum    string
	CompAuxLib    string
	PieceRef      string
	PieceDate     string
	EcritureLib   string
	Debit         string
	Credit        string
	EcritureLet   string
	DateLet       string
	ValidDate     string
	Montantdevise string
	Idevise       string
}

// Header lists the FEC column names in statutory order.
var Header = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

func (r *Record) fields() []string {
	return []string{
		r.JournalCode, r.JournalLib, r.EcritureNum, r.EcritureDate,
		r.CompteNum, r.CompteLib, r.CompAuxNum, r.CompAuxLib,
		r.PieceRef, r.PieceDate, r.EcritureLib, r.Debit, r.Credit,
		r.EcritureLet, r.DateLet, r.ValidDate, r.Montantdevise, r.Idevise,
	}
}

// DebitCents returns the debit column as minor units.
func (r *Record) DebitCents() (int64, error) { return ParseCents(r.Debit) }

// CreditCents returns the credit column as minor units.
func (r *Record) CreditCents() (int64, error) { return ParseCents(r.Credit) }

// EntryDate parses the EcritureDate column.
func (r *Record) EntryDate() (time.Time, error) {
	return time.Parse(DateFormat, r.EcritureDate)
}

// ValidationDate parses the ValidDate column.
func (r *Record) ValidationDate() (time.Time, error) {
	return time.Parse(DateFormat, r.ValidDate)
}

// FormatCents renders minor units as a comma-decimal string with exactly
// two decimals ("123456" cents -> "1234,56"). Values below one unit keep
// the leading zero digit ("-99" cents -> "-0,99").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}

// ParseCents is the inverse of FormatCents. It requires a comma separator
// and exactly two decimal digits.
func ParseCents(s string) (int64, error) {
	whole, frac, ok := strings.Cut(s, ",")
	if !ok || len(frac) != 2 {
		return 0, fmt.Errorf("invalid amount %q: expected comma with two decimals", s)
	}
	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	v := units*100 + cents
	if neg {
		v = -v
	}
	return v, nil
}
