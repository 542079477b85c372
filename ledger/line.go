package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/fecgen/fecgen/fec"
)

// Line is one ledger posting in its internal form: amounts as
// non-negative minor units with exactly one of debit and credit nonzero,
// dates as time values. The FEC projection happens only at export.
type Line struct {
	Journal      fec.Journal
	Operation    int
	Date         time.Time
	Account      *Account
	Evidence     *Evidence
	Label        string
	DebitCents   int64
	CreditCents  int64
	Lettrage     string
	LettrageDate time.Time
	ValidDate    time.Time
}

// Net returns credit minus debit.
func (l *Line) Net() int64 {
	return l.CreditCents - l.DebitCents
}

// Record projects the line to its FEC export form.
func (l *Line) Record() *fec.Record {
	r := &fec.Record{
		JournalCode:  l.Journal.Code,
		JournalLib:   l.Journal.Label,
		EcritureNum:  strconv.Itoa(l.Operation),
		EcritureDate: l.Date.Format(fec.DateFormat),
		CompteNum:    l.Account.CompteNum(),
		CompteLib:    l.Account.Label,
		CompAuxNum:   l.Account.CompAuxNum(),
		CompAuxLib:   l.Account.CompAuxLib(),
		PieceDate:    l.Date.Format(fec.DateFormat),
		EcritureLib:  l.Label,
		Debit:        fec.FormatCents(l.DebitCents),
		Credit:       fec.FormatCents(l.CreditCents),
		EcritureLet:  l.Lettrage,
		ValidDate:    l.ValidDate.Format(fec.DateFormat),
	}
	if l.Evidence != nil {
		r.PieceRef = l.Evidence.Ref()
		r.PieceDate = l.Evidence.When.Format(fec.DateFormat)
	}
	if l.Lettrage != "" {
		r.DateLet = l.LettrageDate.Format(fec.DateFormat)
	}
	return r
}

// Posting is a logical posting request handed to the Factory. When Label
// is empty the factory composes it from Reference and Note.
type Posting struct {
	Journal     fec.Journal
	Account     *Account
	Date        time.Time
	Operation   int
	Label       string
	Reference   string
	Note        string
	DebitCents  int64
	CreditCents int64
	Lettrage    string
	Evidence    *Evidence
}

// Factory builds ledger lines from posting requests, deriving the
// composed label and the validation date.
type Factory struct {
	// SalesJournal is the journal code on which the event reference is
	// omitted from composed labels (the invoice number already is the
	// label there).
	SalesJournal string
}

// Build derives a Line from a posting request. The label is either taken
// verbatim or composed as "reference - note" with tabs and newlines
// flattened; a posting with no label content at all is an error.
func (f *Factory) Build(p Posting) (*Line, error) {
	label := p.Label
	if label == "" {
		label = f.composeLabel(p)
	}
	if label == "" {
		return nil, NewEmptyLabelError(p.Operation, p.Account.Code)
	}

	line := &Line{
		Journal:     p.Journal,
		Operation:   p.Operation,
		Date:        p.Date,
		Account:     p.Account,
		Evidence:    p.Evidence,
		Label:       label,
		DebitCents:  p.DebitCents,
		CreditCents: p.CreditCents,
		Lettrage:    p.Lettrage,
		ValidDate:   ValidationDate(p.Date),
	}
	if p.Lettrage != "" {
		line.LettrageDate = line.ValidDate
	}
	return line, nil
}

func (f *Factory) composeLabel(p Posting) string {
	var parts []string
	if p.Reference != "" && p.Journal.Code != f.SalesJournal {
		parts = append(parts, flatten(p.Reference))
	}
	if p.Note != "" {
		parts = append(parts, flatten(p.Note))
	}
	return strings.Join(parts, " - ")
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
