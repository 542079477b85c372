package ledger

import (
	"fmt"
	"strings"
)

// The rule table is data, not code: an ordered list of predicates bound
// to named posting actions, loaded from the accounting plan. The engine
// evaluates it top to bottom; dispatch mode decides whether the first
// match wins or every match fires.

// DispatchMode selects how many matching rules may fire per event.
type DispatchMode string

const (
	// DispatchFirst stops at the first matching rule.
	DispatchFirst DispatchMode = "first"
	// DispatchAll lets every matching rule fire, in table order.
	DispatchAll DispatchMode = "all"
)

// ParseDispatchMode validates a configured dispatch mode.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch DispatchMode(s) {
	case DispatchFirst, DispatchAll:
		return DispatchMode(s), nil
	case "":
		return DispatchFirst, nil
	}
	return "", fmt.Errorf("invalid dispatch mode %q: want \"first\" or \"all\"", s)
}

// Predicate is the data-describable condition of one rule. Zero-valued
// fields do not constrain the event.
type Predicate struct {
	// Category matches the event category exactly.
	Category string `yaml:"category"`
	// Sign constrains the net amount: "credit" (money in), "debit"
	// (money out) or empty for either.
	Sign string `yaml:"sign"`
	// VAT constrains the VAT breakdown: "zero", "nonzero" or empty.
	VAT string `yaml:"vat"`
	// NoteContains requires a substring of the free-text note.
	NoteContains string `yaml:"note_contains"`
	// CounterpartyContains requires a substring of the counterparty name.
	CounterpartyContains string `yaml:"counterparty_contains"`
	// Routed requires the category to resolve through the chart routing
	// keys (the generic expense/revenue family).
	Routed bool `yaml:"routed"`
}

// Matches evaluates the predicate against a bank transaction. The chart
// is consulted only for Routed predicates.
func (p *Predicate) Matches(tx *BankTransaction, chart *Chart) bool {
	if p.Category != "" && p.Category != tx.Category {
		return false
	}
	switch p.Sign {
	case "credit":
		if tx.AmountExclVATCents <= 0 {
			return false
		}
	case "debit":
		if tx.AmountExclVATCents >= 0 {
			return false
		}
	}
	switch p.VAT {
	case "zero":
		if tx.VATCents != 0 {
			return false
		}
	case "nonzero":
		if tx.VATCents == 0 {
			return false
		}
	}
	if p.NoteContains != "" && !strings.Contains(tx.Note, p.NoteContains) {
		return false
	}
	if p.CounterpartyContains != "" && !strings.Contains(tx.Counterparty, p.CounterpartyContains) {
		return false
	}
	if p.Routed && chart.ByRoutingKey(tx.Category) == nil {
		return false
	}
	return true
}

// Rule binds a predicate to a named posting action.
type Rule struct {
	Name   string    `yaml:"name"`
	Match  Predicate `yaml:"match"`
	Action string    `yaml:"action"`
}

// AccountException routes specific account codes, resolved by routing
// key, to a specialized action before the generic expense rule applies.
// The table is evaluated in priority order.
type AccountException struct {
	Codes  []string `yaml:"codes"`
	Sign   string   `yaml:"sign"`
	VAT    string   `yaml:"vat"`
	Action string   `yaml:"action"`
}

func (x *AccountException) matches(account *Account, tx *BankTransaction) bool {
	found := false
	for _, code := range x.Codes {
		if account.Code == code {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	switch x.Sign {
	case "credit":
		if tx.AmountExclVATCents <= 0 {
			return false
		}
	case "debit":
		if tx.AmountExclVATCents >= 0 {
			return false
		}
	}
	if x.VAT == "zero" && tx.VATCents != 0 {
		return false
	}
	return true
}

// Codes names the structural accounts the posting actions rely on. All
// of them must pre-exist in the chart of accounts.
type Codes struct {
	Bank            string `yaml:"bank"`
	SecondaryBank   string `yaml:"secondary_bank"`
	InternalTransit string `yaml:"internal_transit"`
	Customers       string `yaml:"customers"`
	Suppliers       string `yaml:"suppliers"`
	Revenue         string `yaml:"revenue"`
	VatPending      string `yaml:"vat_pending"`
	VatCollected    string `yaml:"vat_collected"`
	VatDeductible   string `yaml:"vat_deductible"`
	TaxPayable      string `yaml:"tax_payable"`
	SocialPayable   string `yaml:"social_payable"`
	SocialPaid      string `yaml:"social_paid"`
	SocialOptional  string `yaml:"social_optional"`
	MadelinAccrual  string `yaml:"madelin_accrual"`
	CorporateTax    string `yaml:"corporate_tax"`
	CorporateTaxDue string `yaml:"corporate_tax_due"`
}

// DefaultCodes returns the standard French chart mapping.
func DefaultCodes() Codes {
	return Codes{
		Bank:            "512",
		SecondaryBank:   "512001",
		InternalTransit: "580",
		Customers:       "411",
		Suppliers:       "401",
		Revenue:         "706",
		VatPending:      "4458",
		VatCollected:    "44571",
		VatDeductible:   "445661",
		TaxPayable:      "447",
		SocialPayable:   "431",
		SocialPaid:      "646",
		SocialOptional:  "646100",
		MadelinAccrual:  "64114",
		CorporateTax:    "6951",
		CorporateTaxDue: "444",
	}
}
