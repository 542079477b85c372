package qonto

import (
	"fmt"
	"time"

	"github.com/fecgen/fecgen/ledger"
)

// defaultFeeNote labels Qonto's own service fees, which never carry a
// note or a reference of their own.
const defaultFeeNote = "Frais bancaires Qonto"

var supportedVatRates = []float64{0, 5.5, 10, 20}

// InvalidEventError reports an API payload that failed normalization.
type InvalidEventError struct {
	ID     string
	Label  string
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Label, e.ID, e.Reason)
}

func invalidEvent(id, label, format string, args ...any) *InvalidEventError {
	return &InvalidEventError{ID: id, Label: label, Reason: fmt.Sprintf(format, args...)}
}

type rawTransaction struct {
	TransactionID      string    `json:"transaction_id"`
	Label              string    `json:"label"`
	Status             string    `json:"status"`
	Currency           string    `json:"currency"`
	AmountCents        int64     `json:"amount_cents"`
	Side               string    `json:"side"`
	SettledAt          time.Time `json:"settled_at"`
	AttachmentRequired bool      `json:"attachment_required"`
	AttachmentLost     bool      `json:"attachment_lost"`
	AttachmentIDs      []string  `json:"attachment_ids"`
	LabelIDs           []string  `json:"label_ids"`
	Labels             []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Note          string `json:"note"`
	Reference     string `json:"reference"`
	OperationType string `json:"operation_type"`
	Category      string `json:"category"`
	VatDetails    struct {
		Items []struct {
			Rate               float64 `json:"rate"`
			AmountCents        int64   `json:"amount_cents"`
			AmountExclVatCents int64   `json:"amount_excluding_vat_cents"`
		} `json:"items"`
	} `json:"vat_details"`
}

// Normalize validates the raw transaction and converts it into a signed
// ledger event: credits positive, debits negative, VAT split out from
// the net amount.
func (t *rawTransaction) Normalize() (*ledger.BankTransaction, error) {
	if t.Status != "completed" {
		return nil, invalidEvent(t.TransactionID, t.Label, "transaction is not settled (status %q)", t.Status)
	}
	if t.Currency != "EUR" {
		return nil, invalidEvent(t.TransactionID, t.Label, "only EUR is supported, got %q", t.Currency)
	}
	if t.AttachmentRequired && len(t.AttachmentIDs) == 0 && !t.AttachmentLost && t.OperationType != "qonto_fee" {
		return nil, invalidEvent(t.TransactionID, t.Label, "a required attachment is missing")
	}
	if len(t.LabelIDs) > 1 {
		return nil, invalidEvent(t.TransactionID, t.Label, "only one analytic label per transaction is allowed, got %d", len(t.LabelIDs))
	}

	side := int64(1)
	if t.Side != "credit" {
		side = -1
	}

	var exclVAT, vat int64
	if len(t.VatDetails.Items) > 0 {
		for _, item := range t.VatDetails.Items {
			if !vatRateSupported(item.Rate) {
				return nil, invalidEvent(t.TransactionID, t.Label, "unsupported VAT rate %v", item.Rate)
			}
			exclVAT += side * item.AmountExclVatCents
			vat += side * item.AmountCents
		}
	} else {
		exclVAT = side * t.AmountCents
	}
	if exclVAT+vat != side*t.AmountCents {
		return nil, invalidEvent(t.TransactionID, t.Label,
			"amounts do not reconcile: %d + %d != %d", exclVAT, vat, side*t.AmountCents)
	}

	note := t.Note
	if t.OperationType == "qonto_fee" && note == "" {
		note = defaultFeeNote
	}
	category := t.Category
	if len(t.LabelIDs) == 1 && len(t.Labels) > 0 {
		category = t.Labels[0].Name
	}

	return &ledger.BankTransaction{
		AmountExclVATCents: exclVAT,
		VATCents:           vat,
		When:               t.SettledAt,
		Category:           category,
		Counterparty:       t.Label,
		Note:               note,
		Reference:          t.Reference,
		Attachments:        t.AttachmentIDs,
		OperationType:      t.OperationType,
	}, nil
}

func vatRateSupported(rate float64) bool {
	for _, r := range supportedVatRates {
		if rate == r {
			return true
		}
	}
	return false
}

type rawClientInvoice struct {
	ID             string    `json:"id"`
	AttachmentID   string    `json:"attachment_id"`
	IssueDate      time.Time `json:"issue_date"`
	Number         string    `json:"number"`
	TotalCents     int64     `json:"total_amount_cents"`
	VatCents       int64     `json:"vat_amount_cents"`
	CreditNotesIDs []string  `json:"credit_notes_ids"`
	Client         struct {
		Name string `json:"name"`
	} `json:"client"`
}

// Normalize converts a client invoice or credit note payload into a
// ledger invoice event.
func (i *rawClientInvoice) Normalize(kind ledger.InvoiceKind) (*ledger.Invoice, error) {
	if i.Number == "" {
		return nil, invalidEvent(i.ID, i.Client.Name, "invoice has no number")
	}
	if i.Client.Name == "" {
		return nil, invalidEvent(i.ID, i.Number, "invoice has no client name")
	}
	return &ledger.Invoice{
		Kind:              kind,
		Source:            "Qonto",
		SourceID:          i.ID,
		AttachmentID:      i.AttachmentID,
		Number:            i.Number,
		When:              i.IssueDate,
		TotalCents:        i.TotalCents,
		VATCents:          i.VatCents,
		ThirdParty:        i.Client.Name,
		AssociatedCredits: i.CreditNotesIDs,
	}, nil
}

type rawSupplierInvoice struct {
	ID           string    `json:"id"`
	AttachmentID string    `json:"attachment_id"`
	IssueDate    time.Time `json:"issue_date"`
	Number       string    `json:"invoice_number"`
	Status       string    `json:"status"`
	SupplierName string    `json:"supplier_name"`
	TotalAmount  struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"total_amount"`
}

// Normalize converts a supplier invoice payload. The endpoint reports
// the total as a decimal string; VAT is not broken out, so the whole
// amount posts as payable until the settlement arrives.
func (i *rawSupplierInvoice) Normalize() (*ledger.Invoice, error) {
	if i.SupplierName == "" {
		return nil, invalidEvent(i.ID, i.Number, "supplier invoice has no supplier name")
	}
	total, err := centsFromValue(i.TotalAmount.Value)
	if err != nil {
		return nil, invalidEvent(i.ID, i.SupplierName, "unparseable total %q", i.TotalAmount.Value)
	}
	return &ledger.Invoice{
		Kind:         ledger.SupplierInvoice,
		Source:       "Qonto",
		SourceID:     i.ID,
		AttachmentID: i.AttachmentID,
		Number:       i.Number,
		When:         i.IssueDate,
		TotalCents:   total,
		ThirdParty:   i.SupplierName,
	}, nil
}
