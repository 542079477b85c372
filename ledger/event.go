package ledger

import (
	"time"

	"github.com/fecgen/fecgen/fec"
)

// Events are owned by the ingestion layer; the engine only ever mutates
// them to attach the postings it produced, for traceability.

// BankTransaction is a normalized, validated bank movement. Amounts are
// signed minor units: positive for money in, negative for money out.
type BankTransaction struct {
	AmountExclVATCents int64
	VATCents           int64
	When               time.Time
	Category           string
	Counterparty       string
	Note               string
	Reference          string
	Attachments        []string
	OperationType      string

	lines []*Line
}

// TotalCents returns the signed settled amount including VAT.
func (t *BankTransaction) TotalCents() int64 {
	return t.AmountExclVATCents + t.VATCents
}

// Lines returns the postings produced for this transaction.
func (t *BankTransaction) Lines() []*Line { return t.lines }

func (t *BankTransaction) attach(l *Line) { t.lines = append(t.lines, l) }

// InvoiceKind tags the invoice event variants.
type InvoiceKind int

const (
	ClientInvoice InvoiceKind = iota
	ClientCredit
	SupplierInvoice
)

func (k InvoiceKind) String() string {
	switch k {
	case ClientInvoice:
		return "client_invoice"
	case ClientCredit:
		return "client_credit"
	case SupplierInvoice:
		return "supplier_invoice"
	}
	return "unknown"
}

// Invoice is a client or supplier invoice or credit note, posted into
// the ledger ahead of its settlement.
type Invoice struct {
	Kind              InvoiceKind
	Source            string
	SourceID          string
	AttachmentID      string
	Number            string
	When              time.Time
	TotalCents        int64
	VATCents          int64
	ThirdParty        string
	AssociatedCredits []string

	line *Line
}

// ExclVATCents returns the invoice amount without VAT.
func (i *Invoice) ExclVATCents() int64 {
	return i.TotalCents - i.VATCents
}

// Posted reports whether the invoice already went into the ledger.
func (i *Invoice) Posted() bool { return i.line != nil }

// ReceivableLine returns the third-party posting awaiting settlement,
// or nil when the invoice is not posted yet.
func (i *Invoice) ReceivableLine() *Line { return i.line }

// ManualPosting is one journal line of a manual entry, already resolved
// against the journal registry and chart of accounts.
type ManualPosting struct {
	Journal     fec.Journal
	Account     *Account
	DebitCents  int64
	CreditCents int64
}

// ManualEntry is a manually recorded operation (opening balances,
// corrections) loaded from the miscellaneous-entries file.
type ManualEntry struct {
	Date      time.Time
	Label     string
	PieceRef  string
	PieceDate time.Time
	Postings  []ManualPosting
}
